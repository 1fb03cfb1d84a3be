package parsers

import "testing"

const smbmapReport = `[+] Guest session   	IP: 10.0.0.3:445	Name: files.lab
        Disk                                                  	Permissions	Comment
	----                                                  	-----------	-------
	ADMIN$                                            	NO ACCESS	Remote Admin
	IPC$                                              	READ ONLY	IPC Service (Samba 4.13)
	public                                            	READ, WRITE	Public share

`

func TestSMBMapFiltersNoAccess(t *testing.T) {
	base := []string{"remote", "ipv4", "10.0.0.3", "port", "445"}
	assertTokens(t, [][]string{
		row(base, "SMBDrive", "IPC$\n"),
		row(base, "SMBDrive", "IPC$", "Permissions: READ ONLY\n"),
		row(base, "SMBDrive", "IPC$", "Comment: IPC Service (Samba 4.13)\n\n"),
		row(base, "SMBDrive", "public\n"),
		row(base, "SMBDrive", "public", "Permissions: READ, WRITE\n"),
		row(base, "SMBDrive", "public", "Comment: Public share\n\n"),
	}, parse(t, NewSMBMap(), smbmapReport, Env{}))
}

func TestSMBMapNoAccessRowOnly(t *testing.T) {
	header := "[+] IP: 10.0.0.3:445\tName: files.lab\n\tDisk\tPermissions\tComment\n\t----\t-----------\t-------\n"

	if got := parse(t, NewSMBMap(), header+"\tADMIN$\tNO ACCESS\tRemote Admin\n", Env{}); len(got) != 0 {
		t.Fatalf("NO ACCESS row should be filtered, got %v", tokens(got))
	}
	if got := parse(t, NewSMBMap(), header+"\tADMIN$\tREAD ONLY\tRemote Admin\n", Env{}); len(got) != 3 {
		t.Fatalf("READ ONLY row should give 3 facts, got %v", tokens(got))
	}
}

func TestSMBMapCountedKeepsEveryRow(t *testing.T) {
	base := []string{"remote", "ipv4", "10.0.0.3", "port", "445"}
	assertTokens(t, [][]string{
		row(base, "SMBDrive", "ADMIN$\n"),
		row(base, "SMBperm", "0NO ACCESS\n"),
		row(base, "SMBcomment", "0Remote Admin\n"),
		row(base, "SMBDrive", "IPC$\n"),
		row(base, "SMBperm", "1READ ONLY\n"),
		row(base, "SMBcomment", "1IPC Service (Samba 4.13)\n"),
		row(base, "SMBDrive", "public\n"),
		row(base, "SMBperm", "2READ, WRITE\n"),
		row(base, "SMBcomment", "2Public share\n"),
	}, parse(t, NewSMBMapCount(), smbmapReport, Env{}))
}

func TestSMBMapMultipleHostsAndShortRows(t *testing.T) {
	input := "[+] IP: 10.0.0.3:445\tName: a\n\tDisk\tPermissions\tComment\n\t----\t-----------\t-------\n" +
		"\tbroken\n" +
		"\tdata\tREAD ONLY\tShared\n" +
		"\n" +
		"[+] IP: 10.0.0.4:smb\tName: b\n\tDisk\tPermissions\tComment\n\t----\t-----------\t-------\n" +
		"\tbackup\tREAD ONLY\tNightly\n"

	first := []string{"remote", "ipv4", "10.0.0.3", "port", "445"}
	second := []string{"remote", "ipv4", "10.0.0.4", "port", "445"}
	assertTokens(t, [][]string{
		row(first, "SMBDrive", "data\n"),
		row(first, "SMBperm", "0READ ONLY\n"),
		row(first, "SMBcomment", "0Shared\n"),
		row(second, "SMBDrive", "backup\n"),
		row(second, "SMBperm", "0READ ONLY\n"),
		row(second, "SMBcomment", "0Nightly\n"),
	}, parse(t, NewSMBMapCount(), input, Env{}))
}
