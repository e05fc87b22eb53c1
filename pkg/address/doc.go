// Package address converges the IPv4 addresses of the container interface
// onto the single address the container was given.
package address
