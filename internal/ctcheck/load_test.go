package ctcheck

import (
	"testing"

	"golang.org/x/tools/go/packages"
)

// secretPackages handle keys, shared secrets or derived key material.
var secretPackages = []string{
	"github.com/vaultsandbox/hpke-go",
	"github.com/vaultsandbox/hpke-go/internal/aead",
	"github.com/vaultsandbox/hpke-go/internal/dhkem",
	"github.com/vaultsandbox/hpke-go/internal/kdf",
	"github.com/vaultsandbox/hpke-go/internal/schedule",
	"github.com/vaultsandbox/hpke-go/internal/session",
	"github.com/vaultsandbox/hpke-go/internal/zeroize",
}

func loadSecretPackages(t *testing.T) []*packages.Package {
	t.Helper()

	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
	}

	pkgs, err := packages.Load(cfg, secretPackages...)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if n := packages.PrintErrors(pkgs); n > 0 {
		t.Fatalf("load packages: %d errors", n)
	}
	if len(pkgs) != len(secretPackages) {
		t.Fatalf("loaded %d packages, want %d", len(pkgs), len(secretPackages))
	}
	return pkgs
}
