package service

import (
	"errors"
	"strings"

	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/pkg/pi30"
)

const (
	STATUS_ACCEPTED = "Comando aceptado"
	STATUS_FAILED   = "Error en configuracion"
)

var ErrCommandMissing = errors.New("Command missing")

// StatusMessage renders an outcome for API clients. Rejections and
// communication errors share the failure message.
func StatusMessage(outcome pi30.Outcome) string {
	if outcome == pi30.Accepted {
		return STATUS_ACCEPTED
	}
	return STATUS_FAILED
}

// CommandDefaults fills the target of a command request.
type CommandDefaults struct {
	Host string
	Port int
}

// Normalize validates req and fills its missing target with the defaults.
func (d CommandDefaults) Normalize(req domain.SendCommandRequest) (domain.SendCommandRequest, error) {
	if req.Command == "" {
		return req, ErrCommandMissing
	}
	if strings.TrimSpace(req.Host) == "" {
		req.Host = d.Host
	}
	if req.Port <= 0 {
		req.Port = d.Port
	}
	return req, nil
}

func CommandResultFromResponse(resp domain.SendCommandResponse) domain.CommandResult {
	return domain.CommandResult{
		Id:      resp.Id,
		Command: resp.Command,
		Outcome: resp.Outcome.String(),
		Status:  StatusMessage(resp.Outcome),
	}
}
