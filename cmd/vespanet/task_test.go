package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cuemby/vespanet/pkg/types"
	"github.com/stretchr/testify/assert"
)

type fakeLister struct {
	ids []string
	err error
}

func (f fakeLister) ListContainers(context.Context) ([]string, error) {
	return f.ids, f.err
}

func TestWithKnownContainers(t *testing.T) {
	notFound := fmt.Errorf("%w: no container web-9 in namespace default", types.ErrNamespaceNotFound)

	err := withKnownContainers(context.Background(), fakeLister{ids: []string{"web-1", "web-2"}}, notFound)
	assert.ErrorIs(t, err, types.ErrNamespaceNotFound)
	assert.Contains(t, err.Error(), "known containers: web-1, web-2")

	err = withKnownContainers(context.Background(), fakeLister{err: errors.New("unavailable")}, notFound)
	assert.Equal(t, notFound, err)

	other := errors.New("connection refused")
	err = withKnownContainers(context.Background(), fakeLister{ids: []string{"web-1"}}, other)
	assert.Equal(t, other, err)
}
