package port

import "github.com/berfenger/pi30bridge/pkg/pi30"

// Transactor runs one request-response exchange with an inverter.
type Transactor interface {
	Exchange(frame pi30.Frame, host string, port int) pi30.Result
}

var _ Transactor = (*pi30.Client)(nil)
