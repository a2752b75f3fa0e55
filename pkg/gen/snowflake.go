package gen

import (
	"github.com/SahilSagvekar/my-app-sub003/pkg/config"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("snowflake", fx.Provide(NewNode))

// NewNode builds the ID generator for SNOWFLAKE.NODE. Every running process
// needs its own node number.
func NewNode(cfg *config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.Snowflake.Node)
	if err != nil {
		zap.L().Error("failed to init snowflake node", zap.Int64("node", cfg.Snowflake.Node), zap.Error(err))
		return nil, err
	}
	return node, nil
}
