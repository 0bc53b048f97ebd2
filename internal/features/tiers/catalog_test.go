package tiers

import (
	"errors"
	"testing"

	"github.com/pravino/botgame-sub001/internal/common"
)

func TestResolveKnownTiers(t *testing.T) {
	catalog := DefaultCatalog(30)

	for _, name := range []string{"bronze", "silver", "gold", "platinum"} {
		cfg, err := catalog.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q): неожиданная ошибка %v", name, err)
		}
		if cfg.Name != name {
			t.Errorf("Resolve(%q).Name = %q", name, cfg.Name)
		}
		if cfg.AllocationDays != 30 {
			t.Errorf("Resolve(%q).AllocationDays = %d, ожидалось 30", name, cfg.AllocationDays)
		}
		if len(cfg.GameWeights) != len(Games) {
			t.Errorf("Resolve(%q): веса заданы не для всех игр: %v", name, cfg.GameWeights)
		}
	}
}

func TestResolveUnknownTier(t *testing.T) {
	catalog := DefaultCatalog(30)

	_, err := catalog.Resolve("diamond")
	if !errors.Is(err, common.ErrUnknownTier) {
		t.Fatalf("ожидалась ErrUnknownTier, получено %v", err)
	}
}

func TestBronzeHasNoCooldownRefill(t *testing.T) {
	catalog := DefaultCatalog(30)

	bronze, _ := catalog.Resolve("bronze")
	if bronze.RefillCooldown != nil {
		t.Errorf("у bronze не должно быть кулдаун-рефилла, получено %v", *bronze.RefillCooldown)
	}

	gold, _ := catalog.Resolve("gold")
	if gold.RefillCooldown == nil {
		t.Error("у gold должен быть кулдаун-рефилл")
	}
}
