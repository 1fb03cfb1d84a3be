package parsers

import "testing"

const niktoReport = `- Nikto v2.1.6
---------------------------------------------------------------------------
+ Target IP:          10.0.0.5
+ Target Hostname:    10.0.0.5
+ Target Port:        80
+ Start Time:         2023-06-05 10:00:00 (GMT9)
---------------------------------------------------------------------------
+ Server: Apache/2.4.41 (Ubuntu)
+ Cookie PHPSESSID created without the httponly flag
+ End Time:           2023-06-05 10:05:00 (GMT9) (300 seconds)
---------------------------------------------------------------------------
+ 1 host(s) tested
`

func TestNiktoSingleSegment(t *testing.T) {
	input := "+ Target Hostname: 10.0.0.5\n+ Target Port: 80\n+ Cookie PHPSESSID created\n+ End Time: 2023-06-05\n+ after end\n"

	assertTokens(t, [][]string{
		{"remote", "ipv4", "10.0.0.5", "port", "80", "nikto-vuln", "+ Cookie PHPSESSID created\n"},
	}, parse(t, Nikto{}, input, Env{}))
}

func TestNiktoReport(t *testing.T) {
	base := []string{"remote", "ipv4", "10.0.0.5", "port", "80"}
	assertTokens(t, [][]string{
		row(base, "nikto-vuln", "+ Server: Apache/2.4.41 (Ubuntu)\n"),
		row(base, "nikto-vuln", "+ Cookie PHPSESSID created without the httponly flag\n"),
	}, parse(t, Nikto{}, niktoReport, Env{}))
}

func TestNiktoIgnoresTargetIP(t *testing.T) {
	input := "+ Target IP: 10.0.0.5\n+ Target Port: 80\n+ OSVDB-3092: /admin/: This might be interesting.\n"
	if got := parse(t, Nikto{}, input, Env{}); len(got) != 0 {
		t.Fatalf("Target IP must not set the address, got %v", tokens(got))
	}
}

func TestNiktoMultipleSegments(t *testing.T) {
	input := `+ Target Hostname:    www.example.com
+ Target Port:        443
+ The anti-clickjacking X-Frame-Options header is not present.
+ End Time:           2023-06-05 10:05:00
+ Target Hostname:    10.0.0.6
+ Target Port:        8080
+ Allowed HTTP Methods: GET, HEAD, POST, OPTIONS
+ End Time:           2023-06-05 10:09:00
`
	assertTokens(t, [][]string{
		{"remote", "host", "www.example.com", "port", "443", "nikto-vuln", "+ The anti-clickjacking X-Frame-Options header is not present.\n"},
		{"remote", "ipv4", "10.0.0.6", "port", "8080", "nikto-vuln", "+ Allowed HTTP Methods: GET, HEAD, POST, OPTIONS\n"},
	}, parse(t, Nikto{}, input, Env{}))
}
