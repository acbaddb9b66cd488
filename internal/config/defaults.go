package config

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			ModelRoots: []string{"models"},
			ViewRoots:  []string{"views"},
			Exclude: []string{
				"__pycache__/**",
				"tests/**",
				"static/**",
				"migrations/**",
				"*.pyc",
			},
		},
		Analysis: AnalysisConfig{
			ReservedModels:    defaultReservedModels(),
			DuplicateTiebreak: "first",
		},
		Output: OutputConfig{
			DefaultFormat: "yaml",
		},
	}
}

// defaultReservedModels is the frozen set of framework-owned model names.
// Redefining any of these destroys the framework's own definition; addons
// must extend them instead.
func defaultReservedModels() []string {
	return []string{
		"res.partner",
		"res.users",
		"res.company",
		"res.groups",
		"res.currency",
		"res.country",
		"res.lang",
		"ir.ui.view",
		"ir.ui.menu",
		"ir.model",
		"ir.model.fields",
		"ir.actions.act_window",
		"ir.attachment",
		"ir.sequence",
		"ir.cron",
		"ir.rule",
		"ir.config_parameter",
		"mail.thread",
		"mail.message",
		"mail.activity",
		"account.move",
		"account.move.line",
		"account.payment",
		"product.product",
		"product.template",
		"stock.picking",
		"stock.move",
		"sale.order",
		"sale.order.line",
		"purchase.order",
		"hr.employee",
		"pos.config",
		"pos.order",
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Scan = mergeScanConfig(loaded.Scan, defaults.Scan)
	result.Analysis = mergeAnalysisConfig(loaded.Analysis, defaults.Analysis)
	result.Synthesis = loaded.Synthesis
	result.Output = mergeOutputConfig(loaded.Output, defaults.Output)

	return result
}

func mergeScanConfig(loaded, defaults ScanConfig) ScanConfig {
	result := ScanConfig{}

	if len(loaded.ModelRoots) > 0 {
		result.ModelRoots = loaded.ModelRoots
	} else {
		result.ModelRoots = defaults.ModelRoots
	}

	if len(loaded.ViewRoots) > 0 {
		result.ViewRoots = loaded.ViewRoots
	} else {
		result.ViewRoots = defaults.ViewRoots
	}

	if len(loaded.Exclude) > 0 {
		result.Exclude = loaded.Exclude
	} else {
		result.Exclude = defaults.Exclude
	}

	return result
}

func mergeAnalysisConfig(loaded, defaults AnalysisConfig) AnalysisConfig {
	result := AnalysisConfig{}

	// Loaded reserved models extend the frozen default set rather than
	// replacing it; the defaults are load-bearing for the structural check.
	result.ReservedModels = defaults.ReservedModels
	for _, name := range loaded.ReservedModels {
		if !containsString(result.ReservedModels, name) {
			result.ReservedModels = append(result.ReservedModels, name)
		}
	}

	if loaded.DuplicateTiebreak != "" {
		result.DuplicateTiebreak = loaded.DuplicateTiebreak
	} else {
		result.DuplicateTiebreak = defaults.DuplicateTiebreak
	}

	result.CriticalViews = loaded.CriticalViews

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	result := OutputConfig{}

	if loaded.DefaultFormat != "" {
		result.DefaultFormat = loaded.DefaultFormat
	} else {
		result.DefaultFormat = defaults.DefaultFormat
	}

	return result
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
