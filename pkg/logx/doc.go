// Package logx configures toolshed's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured (scheduled wrapper runs have no console)
package logx
