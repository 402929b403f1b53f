package baseline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// ContentHash computes the tamper-evidence digest recorded on a version
// at publish time. Modules are serialized in module-type order; JSON map
// keys marshal sorted, so the same payloads always hash identically.
func ContentHash(modules []BaselineModuleRecord) (string, error) {
	sorted := make([]BaselineModuleRecord, len(modules))
	copy(sorted, modules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ModuleType < sorted[j].ModuleType
	})

	type hashedModule struct {
		ModuleType    string  `json:"moduleType"`
		SchemaVersion int     `json:"schemaVersion"`
		Payload       JSONAny `json:"payload"`
	}
	entries := make([]hashedModule, len(sorted))
	for i, m := range sorted {
		entries[i] = hashedModule{
			ModuleType:    m.ModuleType,
			SchemaVersion: m.SchemaVersion,
			Payload:       m.Payload,
		}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("serialize modules for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
