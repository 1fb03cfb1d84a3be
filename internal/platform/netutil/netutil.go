// Package netutil clasifica identificadores de red extraídos de la salida de
// herramientas y normaliza hosts para comparar contra un scope.
package netutil

import (
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Kind es el tipo de dirección de un identificador.
type Kind string

const (
	KindIPv4 Kind = "ipv4"
	KindIPv6 Kind = "ipv6"
	KindHost Kind = "host"
	// KindIP se reserva para direcciones cuya versión no se puede determinar.
	KindIP Kind = "ip"
)

// sharedAddressSpace (RFC 6598) no es privado ni global.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// Classify devuelve el tipo de s. Nunca falla: lo que no es una dirección
// literal es un host simbólico. El texto no se recorta.
func Classify(s string) Kind {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return KindHost
	}
	switch {
	case addr.Is4():
		return KindIPv4
	case addr.Is6():
		return KindIPv6
	default:
		return KindIP
	}
}

// IsRoutable indica si s es una dirección privada o globalmente enrutable.
// Loopback, link-local, multicast y no especificadas quedan fuera.
func IsRoutable(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return isRoutableAddr(addr)
}

func isRoutableAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsGlobalUnicast() {
		return false
	}
	return !sharedAddressSpace.Contains(addr)
}

// ReduceToHost recibe una secuencia plana clave/valor y elige la dirección
// más útil: la primera ipv4 enrutable y, si no hay, la primera ipv6
// enrutable. Las demás claves se ignoran.
func ReduceToHost(pairs []string) (Kind, string, bool) {
	for _, kind := range []Kind{KindIPv4, KindIPv6} {
		for i := 0; i+1 < len(pairs); i += 2 {
			if pairs[i] == string(kind) && IsRoutable(pairs[i+1]) {
				return kind, pairs[i+1], true
			}
		}
	}
	return "", "", false
}

// Interface describe una dirección con prefijo tal y como la imprime `ip addr`.
type Interface struct {
	Addr    netip.Addr
	Network netip.Prefix
}

// ParseInterface interpreta "10.0.0.5/24" o "fe80::1/64". Sin prefijo se
// asume la longitud completa de la dirección.
func ParseInterface(s string) (Interface, error) {
	if !strings.Contains(s, "/") {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return Interface{}, err
		}
		return Interface{Addr: addr, Network: netip.PrefixFrom(addr, addr.BitLen())}, nil
	}
	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return Interface{}, err
	}
	return Interface{Addr: prefix.Addr(), Network: prefix.Masked()}, nil
}

// Kind devuelve ipv4 o ipv6 según la familia.
func (i Interface) Kind() Kind {
	if i.Addr.Is4() {
		return KindIPv4
	}
	return KindIPv6
}

// Netmask devuelve la máscara en notación de dirección (255.255.255.0, ffff:ffff::).
func (i Interface) Netmask() string {
	mask := net.CIDRMask(i.Network.Bits(), i.Addr.BitLen())
	return net.IP(mask).String()
}

// Routable indica si la red de la interfaz merece un hecho propio.
func (i Interface) Routable() bool {
	return isRoutableAddr(i.Addr)
}

// HostPort extrae host y puerto de una URL absoluta. Si la URL no trae
// puerto se usa 443 para https y defaultPort en cualquier otro caso.
func HostPort(raw string, defaultPort int) (string, string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", "", false
	}
	host := u.Hostname()
	if host == "" {
		return "", "", false
	}
	port := u.Port()
	if port == "" {
		if strings.EqualFold(u.Scheme, "https") {
			port = "443"
		} else {
			port = strconv.Itoa(defaultPort)
		}
	}
	return host, port, true
}

// NormalizeHost devuelve el host en forma canónica para comparaciones: sin
// esquema, credenciales, puerto ni corchetes IPv6, en minúsculas y en punycode.
func NormalizeHost(s string) string {
	candidate := strings.TrimSpace(s)
	if candidate == "" {
		return ""
	}
	if strings.Contains(candidate, "://") {
		if u, err := url.Parse(candidate); err == nil && u.Host != "" {
			candidate = u.Host
		}
	}
	if at := strings.LastIndexByte(candidate, '@'); at >= 0 {
		candidate = candidate[at+1:]
	}
	if i := strings.IndexAny(candidate, "/?#"); i >= 0 {
		candidate = candidate[:i]
	}
	if host, _, err := net.SplitHostPort(candidate); err == nil {
		candidate = host
	}
	candidate = strings.Trim(candidate, "[]")
	candidate = strings.ToLower(strings.TrimSuffix(candidate, "."))
	if candidate == "" {
		return ""
	}
	if _, err := netip.ParseAddr(candidate); err == nil {
		return candidate
	}
	if ascii, err := idna.Lookup.ToASCII(candidate); err == nil {
		return ascii
	}
	return candidate
}
