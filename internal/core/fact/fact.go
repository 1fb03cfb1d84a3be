// Package fact define el registro estructurado que emiten los parsers:
// alcance, descriptor de dirección y una ruta ordenada de pares clave/valor.
package fact

import (
	"strings"

	"scan-facts/internal/platform/netutil"
)

// Reach indica si el hecho describe el objetivo remoto o la máquina local.
type Reach string

const (
	Remote Reach = "remote"
	Local  Reach = "local"
)

// Vocabulario de claves. La lista es abierta: cat usa el nombre del fichero
// leído como clave.
const (
	KeyPort        = "port"
	KeyPortUDP     = "port-udp"
	KeyURL         = "url"
	KeyMAC         = "mac"
	KeyInterface   = "interface"
	KeyNetwork     = "network"
	KeyIPv4        = "ipv4"
	KeyIPv6        = "ipv6"
	KeyNetmask     = "netmask"
	KeyUser        = "user"
	KeyPass        = "pass"
	KeyVersion     = "version"
	KeyName        = "name"
	KeyInfo        = "info"
	KeyPlatform    = "platform"
	KeyVulner      = "vulner"
	KeyNiktoVuln   = "nikto-vuln"
	KeyWPScan      = "wp-scan"
	KeySMBDrive    = "SMBDrive"
	KeySMBPerm     = "SMBperm"
	KeySMBComment  = "SMBcomment"
	KeyLSEResult   = "lse-result"
	KeyRootProcess = "rootprocess"
	KeySUIDFile    = "suidfile"
	KeyUname       = "uname_result"
	KeyPrimary     = "primary"
)

// Address es el descriptor (tipo, valor) que sigue al alcance.
type Address struct {
	Kind  netutil.Kind `json:"kind"`
	Value string       `json:"value"`
}

// AddressOf clasifica s. Nunca falla.
func AddressOf(s string) Address {
	return Address{Kind: netutil.Classify(s), Value: s}
}

// Pair es un paso de la ruta. Un par Bare es una etiqueta sin valor: ocupa
// un solo token al serializar.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
	Bare  bool   `json:"bare,omitempty"`
}

// KV construye un par clave/valor.
func KV(key, value string) Pair {
	return Pair{Key: key, Value: value}
}

// Label construye un par sin valor.
func Label(key string) Pair {
	return Pair{Key: key, Bare: true}
}

// Fact es una observación sobre un host o servicio.
type Fact struct {
	Reach   Reach   `json:"reach"`
	Address Address `json:"address"`
	Path    []Pair  `json:"path,omitempty"`
}

// New construye un hecho remoto. La ruta se copia.
func New(addr Address, path ...Pair) Fact {
	return Fact{Reach: Remote, Address: addr, Path: clonePath(path)}
}

// HostScoped construye un hecho sobre la máquina donde se ejecutó el
// comando: alcance remoto, la dirección del host configurado y la etiqueta
// local al inicio de la ruta.
func HostScoped(addr Address, path ...Pair) Fact {
	full := make([]Pair, 0, len(path)+1)
	full = append(full, Label(string(Local)))
	full = append(full, path...)
	return Fact{Reach: Remote, Address: addr, Path: full}
}

// LocalFact construye un hecho con alcance local.
func LocalFact(addr Address, path ...Pair) Fact {
	return Fact{Reach: Local, Address: addr, Path: clonePath(path)}
}

// Extend devuelve un hecho con la ruta de f seguida de extra. f no cambia.
func (f Fact) Extend(extra ...Pair) Fact {
	path := make([]Pair, 0, len(f.Path)+len(extra))
	path = append(path, f.Path...)
	path = append(path, extra...)
	return Fact{Reach: f.Reach, Address: f.Address, Path: path}
}

// HostLocal indica si el hecho describe la máquina local a través del host
// configurado.
func (f Fact) HostLocal() bool {
	return len(f.Path) > 0 && f.Path[0].Bare && f.Path[0].Key == string(Local)
}

// Tokens aplana el hecho: alcance, tipo, valor y después cada par.
func (f Fact) Tokens() []string {
	out := make([]string, 0, 3+2*len(f.Path))
	out = append(out, string(f.Reach), string(f.Address.Kind), f.Address.Value)
	for _, p := range f.Path {
		out = append(out, p.Key)
		if !p.Bare {
			out = append(out, p.Value)
		}
	}
	return out
}

// Normalized devuelve una copia con los saltos de línea finales eliminados
// de cada token y los tabuladores internos convertidos en espacios.
func (f Fact) Normalized() Fact {
	out := Fact{
		Reach:   f.Reach,
		Address: Address{Kind: f.Address.Kind, Value: normalizeToken(f.Address.Value)},
		Path:    make([]Pair, len(f.Path)),
	}
	for i, p := range f.Path {
		out.Path[i] = Pair{Key: normalizeToken(p.Key), Value: normalizeToken(p.Value), Bare: p.Bare}
	}
	if len(out.Path) == 0 {
		out.Path = nil
	}
	return out
}

// Key devuelve una clave estable para deduplicar.
func (f Fact) Key() string {
	return strings.Join(f.Normalized().Tokens(), "\x00")
}

// String devuelve la forma normalizada separada por tabuladores.
func (f Fact) String() string {
	return strings.Join(f.Normalized().Tokens(), "\t")
}

func normalizeToken(s string) string {
	s = strings.TrimRight(s, "\r\n")
	return strings.ReplaceAll(s, "\t", " ")
}

func clonePath(path []Pair) []Pair {
	if len(path) == 0 {
		return nil
	}
	out := make([]Pair, len(path))
	copy(out, path)
	return out
}
