package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ReceiptGenerator выдаёт уникальные, возрастающие и читаемые номера квитанций.
type ReceiptGenerator interface {
	Next() string
}

type SnowflakeReceiptGenerator struct {
	node   *snowflake.Node
	prefix string
}

// NewReceiptGenerator - nodeID [0, 1023] должен различаться между инстансами.
func NewReceiptGenerator(prefix string, nodeID int64) (*SnowflakeReceiptGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("receipt generator node %d: %w", nodeID, err)
	}
	return &SnowflakeReceiptGenerator{node: node, prefix: prefix}, nil
}

// Next: RCPT-20261014-<base36 snowflake>
func (g *SnowflakeReceiptGenerator) Next() string {
	id := g.node.Generate()
	day := time.UnixMilli(id.Time()).UTC().Format("20060102")
	return fmt.Sprintf("%s-%s-%s", g.prefix, day, strings.ToUpper(id.Base36()))
}
