package parsers

import "testing"

const lseReport = `---
If you know the current user password, write it here to check sudo privileges:
---

 LSE Version: 4.10nw

        User: www-data
     User ID: 33
    Hostname: metasploitable

==============================( Current Output Verbosity Level: 1 )===
===================================================================( users )=====
[i] usr000 Current user groups............................................. yes!
[*] usr010 Is current user in an administrative group?..................... nope
[*] usr020 Are there other users in administrative groups?................. yes!
---
adm:x:4:syslog
sudo:x:27:msfadmin
---
====================================================================( sudo )=====
[!] sud000 Can we sudo without a password?................................. nope
===================================( random banner )=====
[!] sud010 Can we list sudo commands without a password?................... yes!
`

func TestLSESectionsAndFindings(t *testing.T) {
	base := []string{"remote", "host", "metasploitable", "local", "lse-result"}

	users := row(base, "users")
	sudo := row(base, "sudo")
	admins := "[*] usr020 Are there other users in administrative groups?................. yes!"

	assertTokens(t, [][]string{
		row([]string{"remote", "host", "metasploitable", "local"}, "lse-result\n"),
		row(base, "basic-info\n"),
		row(base, "basic-info", "If you know the current user password, write it here to check sudo privileges:\n"),
		row(base, "basic-info", " LSE Version: 4.10nw\n"),
		row(base, "basic-info", "        User: www-data\n"),
		row(base, "basic-info", "     User ID: 33\n"),
		row(base, "basic-info", "    Hostname: metasploitable\n"),
		row(base, "users\n"),
		row(users, "[i] usr000 Current user groups............................................. yes!\n"),
		row(users, "[*] usr010 Is current user in an administrative group?..................... nope\n"),
		row(users, admins+"\n"),
		row(users, admins, "adm:x:4:syslog\n"),
		row(users, admins, "sudo:x:27:msfadmin\n"),
		row(base, "sudo\n"),
		row(sudo, "[!] sud000 Can we sudo without a password?................................. nope\n"),
		row(sudo, "[!] sud010 Can we list sudo commands without a password?................... yes!\n"),
	}, parse(t, LSE{}, lseReport, Env{Host: "metasploitable"}))
}

func TestLSEUnknownBannerIsNotASection(t *testing.T) {
	input := "Current Output\n" +
		"=====( network )=====\n" +
		"=====( random banner )=====\n" +
		"[*] net000 Services listening only on localhost.......... yes!\n"

	base := []string{"remote", "ipv4", "10.0.0.2", "local", "lse-result"}
	assertTokens(t, [][]string{
		row([]string{"remote", "ipv4", "10.0.0.2", "local"}, "lse-result\n"),
		row(base, "basic-info\n"),
		row(base, "network\n"),
		row(base, "network", "[*] net000 Services listening only on localhost.......... yes!\n"),
	}, parse(t, LSE{}, input, Env{Host: "10.0.0.2"}))
}

func TestLSEItemsWithoutResultAreNotEmitted(t *testing.T) {
	input := "Current Output\n=====( processes )=====\n[*] pro000 Processes running with root permissions\n"

	got := tokens(parse(t, LSE{}, input, Env{Host: "kali"}))
	if len(got) != 3 {
		t.Fatalf("expected only the preamble and the section, got %v", got)
	}
}
