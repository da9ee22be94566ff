package adaptation

import (
	"phytogen/internal/genotype"
	"phytogen/internal/model"
)

// Snapshot bundles the engine's full state for persistence.
func (e *Engine) Snapshot() model.AdaptationSnapshot {
	snap := model.AdaptationSnapshot{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: genotype.SupportedSchemaVersion,
			CodecVersion:  genotype.SupportedCodecVersion,
		},
	}
	for _, s := range e.states {
		snap.States = append(snap.States, *s)
	}
	for _, m := range e.mods {
		snap.Modifications = append(snap.Modifications, *m)
	}
	for _, p := range e.profiles {
		profile := *p
		profile.Events = append([]model.StressEvent(nil), p.Events...)
		snap.Profiles = append(snap.Profiles, profile)
	}
	snap.History = append(snap.History, e.history...)
	return snap
}

// Restore replaces the engine's state with a snapshot's contents.
func (e *Engine) Restore(snap model.AdaptationSnapshot) {
	e.states = make(map[string]*model.AdaptationState, len(snap.States))
	for _, s := range snap.States {
		state := s
		e.states[state.GenotypeID+"|"+state.Fingerprint] = &state
	}
	e.mods = make(map[string]*model.EpigeneticModification, len(snap.Modifications))
	for _, m := range snap.Modifications {
		mod := m
		e.mods[mod.GenotypeID+"|"+mod.Name] = &mod
	}
	e.profiles = make(map[string]*model.StressProfile, len(snap.Profiles))
	for _, p := range snap.Profiles {
		profile := p
		profile.Events = append([]model.StressEvent(nil), p.Events...)
		if len(profile.Events) > e.cfg.StressHistoryCap {
			profile.Events = profile.Events[len(profile.Events)-e.cfg.StressHistoryCap:]
		}
		e.profiles[profile.GenotypeID] = &profile
	}
	e.history = append([]model.AdaptationHistoryEntry(nil), snap.History...)
}
