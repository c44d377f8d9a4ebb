package carrier

import (
	"log/slog"

	"carrier-rewards/internal/config/configs"
	"carrier-rewards/internal/core/domain"
	"carrier-rewards/internal/core/port"
)

// Set holds one adapter per supported operator and resolves the concrete
// implementation from a stored operator value.
type Set struct {
	byOp map[domain.Operator]port.Carrier
}

// NewSet builds all three adapters from configuration.
func NewSet(cfg configs.Carriers, logger *slog.Logger) *Set {
	return &Set{byOp: map[domain.Operator]port.Carrier{
		domain.OperatorPrezao: NewPrezao(cfg.Prezao, cfg.Upstream, logger),
		domain.OperatorPontos: NewPontos(cfg.Pontos, cfg.Upstream, logger),
		domain.OperatorFun:    NewFun(cfg.Fun, cfg.Upstream, logger),
	}}
}

// Carrier returns the adapter for the operator.
func (s *Set) Carrier(op domain.Operator) (port.Carrier, error) {
	c, ok := s.byOp[op]
	if !ok {
		return nil, port.ErrUnknownOperator
	}
	return c, nil
}
