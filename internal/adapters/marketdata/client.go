// Package marketdata collects live market and social metrics for tracked
// projects and turns them into feed snapshots.
package marketdata

import (
	"net/http"

	"github.com/go-resty/resty/v2"
)

const defaultRetryCount = 3

// newClient builds the shared REST client used by collectors.
func newClient() *resty.Client {
	return resty.New().SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}).SetRetryCount(defaultRetryCount)
}
