package netutil

import (
	"net/netip"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Scope representa los límites de un objetivo: un dominio registrable, una
// IP concreta o un rango CIDR.
type Scope struct {
	hostname    string
	registrable string
	prefix      netip.Prefix
	isAddr      bool
}

// NewScope construye un Scope desde el target dado. Si no se puede
// normalizar, devuelve nil (sin filtrado).
func NewScope(target string) *Scope {
	trimmed := strings.TrimSpace(target)
	if trimmed == "" {
		return nil
	}

	if prefix, err := netip.ParsePrefix(trimmed); err == nil {
		return &Scope{hostname: trimmed, prefix: prefix.Masked(), isAddr: true}
	}

	normalized := NormalizeHost(trimmed)
	if normalized == "" || strings.Contains(normalized, "*") {
		return nil
	}

	if addr, err := netip.ParseAddr(normalized); err == nil {
		return &Scope{hostname: normalized, prefix: netip.PrefixFrom(addr, addr.BitLen()), isAddr: true}
	}

	registrable := normalized
	if effective, err := publicsuffix.EffectiveTLDPlusOne(normalized); err == nil && effective != "" {
		registrable = strings.ToLower(effective)
	}

	return &Scope{hostname: normalized, registrable: registrable}
}

// String devuelve el target tal y como quedó normalizado.
func (s *Scope) String() string {
	if s == nil {
		return ""
	}
	return s.hostname
}

// Allows indica si una dirección clasificada cae dentro del scope. Un scope
// de dominio rechaza IPs y un scope de IP rechaza nombres.
func (s *Scope) Allows(kind Kind, value string) bool {
	if s == nil {
		return true
	}

	candidate := NormalizeHost(value)
	if candidate == "" {
		return false
	}

	if s.isAddr {
		if kind == KindHost {
			return false
		}
		addr, err := netip.ParseAddr(candidate)
		if err != nil {
			return false
		}
		return s.prefix.Contains(addr.WithZone(""))
	}

	if kind != KindHost {
		return false
	}
	if candidate == s.hostname || candidate == s.registrable {
		return true
	}
	return strings.HasSuffix(candidate, "."+s.registrable)
}
