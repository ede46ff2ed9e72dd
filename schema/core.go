package schema

import validus "github.com/validus/validus-go"

// coreParameters is the built-in vocabulary covering the common model
// parameters. User schema files layer on top of it.
var coreParameters = []Parameter{
	{Name: "base_tech", Dims: []string{validus.DimTechs}, Kind: KindString,
		Description: "abstract base class of the technology"},
	{Name: "carrier_in", Dims: []string{validus.DimTechs}, Kind: KindString,
		Description: "carrier consumed by the technology"},
	{Name: "carrier_out", Dims: []string{validus.DimTechs}, Kind: KindString,
		Description: "carrier produced by the technology"},
	{Name: "flow_cap_max", Dims: []string{validus.DimTechs, validus.DimNodes}, Kind: KindNumber,
		Description: "upper bound on rated flow capacity"},
	{Name: "flow_cap_min", Dims: []string{validus.DimTechs, validus.DimNodes}, Kind: KindNumber,
		Description: "lower bound on rated flow capacity"},
	{Name: "flow_cap_max_systemwide", Dims: []string{validus.DimTechs}, Kind: KindNumber,
		Description: "upper bound on flow capacity summed over all nodes"},
	{Name: "flow_out_eff", Dims: []string{validus.DimTechs, validus.DimNodes, validus.DimCarriers}, Kind: KindNumber,
		Description: "conversion efficiency from consumption to production"},
	{Name: "flow_in_eff", Dims: []string{validus.DimTechs, validus.DimNodes, validus.DimCarriers}, Kind: KindNumber,
		Description: "conversion efficiency from source to consumption"},
	{Name: "storage_cap_max", Dims: []string{validus.DimTechs, validus.DimNodes}, Kind: KindNumber,
		Description: "upper bound on stored energy"},
	{Name: "storage_cap_min", Dims: []string{validus.DimTechs, validus.DimNodes}, Kind: KindNumber,
		Description: "lower bound on stored energy"},
	{Name: "source_use_equals", Dims: []string{validus.DimTechs, validus.DimNodes}, Kind: KindNumber,
		Description: "required source consumption"},
	{Name: "sink_use_equals", Dims: []string{validus.DimTechs, validus.DimNodes}, Kind: KindNumber,
		Description: "required sink delivery"},
	{Name: "source_use_max", Dims: []string{validus.DimTechs, validus.DimNodes}, Kind: KindNumber,
		Description: "upper bound on source consumption"},
	{Name: "area_use_max", Dims: []string{validus.DimTechs, validus.DimNodes}, Kind: KindNumber,
		Description: "upper bound on area used"},
	{Name: "cost_flow_cap", Dims: []string{validus.DimTechs, validus.DimNodes}, Kind: KindNumber,
		Description: "cost per unit of flow capacity"},
	{Name: "cost_storage_cap", Dims: []string{validus.DimTechs, validus.DimNodes}, Kind: KindNumber,
		Description: "cost per unit of storage capacity"},
	{Name: "cost_flow_out", Dims: []string{validus.DimTechs, validus.DimNodes, validus.DimCarriers}, Kind: KindNumber,
		Description: "cost per unit of carrier production"},
	{Name: "lifetime", Dims: []string{validus.DimTechs}, Kind: KindNumber,
		Description: "technology lifetime in years"},
	{Name: "interest_rate", Dims: []string{validus.DimTechs}, Kind: KindNumber,
		Description: "interest rate used for cost annualization"},
	{Name: "force_async_flow", Dims: []string{validus.DimTechs}, Kind: KindBool,
		Description: "forbid simultaneous flow in both directions"},
	{Name: "one_way", Dims: []string{validus.DimTechs}, Kind: KindBool,
		Description: "restrict transmission to one direction"},
}

// Core returns a fresh copy of the built-in vocabulary.
func Core() *Vocabulary {
	v := New()
	for _, p := range coreParameters {
		_ = v.Register(p)
	}
	return v
}
