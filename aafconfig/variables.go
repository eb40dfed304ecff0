/*
NAME
  variables.go

DESCRIPTION
  variables.go contains the map_nv_* INI key table for AAF stream
  configuration (spec.md S6 "Configuration (INI key=value)"). Unlike
  revid/config.Variables, which defaults and logs an invalid field,
  Config.Update here silently preserves the prior value on a malformed entry,
  per spec.md S6's "malformed values are silently ignored (preserving the
  prior value)".

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package aafconfig

import "strconv"

// Config map keys (spec.md S6).
const (
	KeyItemCount               = "map_nv_item_count"
	KeyPackingFactor           = "map_nv_packing_factor"
	KeyTxRate                  = "map_nv_tx_rate"
	KeyTxInterval              = "map_nv_tx_interval"
	KeySparseMode              = "map_nv_sparse_mode"
	KeyAudioMCR                = "map_nv_audio_mcr"
	KeyMCRTimestampInterval    = "map_nv_mcr_timestamp_interval"
	KeyMCRRecoveryInterval     = "map_nv_mcr_recovery_interval"
	KeyTemporalRedundantOffset = "map_nv_temporal_redundant_offset"
	KeyMaxAllowedDropoutTime   = "map_nv_max_allowed_dropout_time"
	KeyReportSeconds           = "map_nv_report_seconds"
)

// Variables describes the map_nv_* variables Config.Update understands. Each
// Update function parses a base-10 integer (spec.md S6: "all numeric values
// are base-10 integers") and leaves the field untouched on parse failure.
var Variables = []struct {
	Name   string
	Update func(*Config, string)
}{
	{KeyItemCount, func(c *Config, v string) { updateInt(&c.ItemCount, v) }},
	{KeyPackingFactor, func(c *Config, v string) { updateInt(&c.PackingFactor, v) }},
	// map_nv_tx_rate and map_nv_tx_interval are alternate names for the same
	// talker packets/second field (spec.md S6).
	{KeyTxRate, func(c *Config, v string) { updateInt(&c.TxInterval, v) }},
	{KeyTxInterval, func(c *Config, v string) { updateInt(&c.TxInterval, v) }},
	{KeySparseMode, func(c *Config, v string) {
		n, ok := parseInt(v)
		if !ok {
			return
		}
		c.SparseMode = n != 0
	}},
	{KeyAudioMCR, func(c *Config, v string) {
		n, ok := parseInt(v)
		if !ok {
			return
		}
		c.AudioMCR = MCRMode(n)
	}},
	{KeyMCRTimestampInterval, func(c *Config, v string) { updateInt(&c.MCRTimestampInterval, v) }},
	{KeyMCRRecoveryInterval, func(c *Config, v string) { updateInt(&c.MCRRecoveryInterval, v) }},
	// map_nv_temporal_redundant_offset and map_nv_max_allowed_dropout_time
	// are alternate names for the MADT offset in microseconds (spec.md S6).
	{KeyTemporalRedundantOffset, func(c *Config, v string) { updateInt(&c.TemporalRedundantOffsetUsec, v) }},
	{KeyMaxAllowedDropoutTime, func(c *Config, v string) { updateInt(&c.TemporalRedundantOffsetUsec, v) }},
	{KeyReportSeconds, func(c *Config, v string) { updateInt(&c.ReportSeconds, v) }},
}

// Update applies every key present in vars to c. Unknown keys are ignored;
// Validate must be called afterwards to recompute derived sizes.
func (c *Config) Update(vars map[string]string) {
	for _, variable := range Variables {
		if v, ok := vars[variable.Name]; ok {
			variable.Update(c, v)
		}
	}
}

func parseInt(v string) (int, bool) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func updateInt(field *int, v string) {
	if n, ok := parseInt(v); ok {
		*field = n
	}
}
