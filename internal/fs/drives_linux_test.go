package fs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMounts(t *testing.T) {
	mounts := `sysfs /sys sysfs rw,nosuid 0 0
proc /proc proc rw 0 0
/dev/nvme0n1p2 / ext4 rw,relatime 0 0
/dev/nvme0n1p3 /home ext4 rw 0 0
tmpfs /tmp tmpfs rw 0 0
/dev/nvme0n1p1 /boot/efi vfat rw 0 0
/dev/sdb1 /media/alex/USB\040Stick vfat rw 0 0
server:/export /mnt/nas nfs4 rw 0 0
/dev/sdc1 /data xfs rw 0 0
/dev/sdc1 /data xfs rw 0 0
garbage
`
	got := parseMounts(strings.NewReader(mounts))
	assert.Equal(t, []Drive{
		{Name: "/ (Root)", Path: "/"},
		{Name: "Home", Path: "/home"},
		{Name: "USB Stick", Path: "/media/alex/USB Stick"},
		{Name: "nas", Path: "/mnt/nas"},
		{Name: "/data", Path: "/data"},
	}, got)
}

func TestListDrivesIncludesRoot(t *testing.T) {
	drives := ListDrives()
	if assert.NotEmpty(t, drives) {
		assert.Equal(t, "/", drives[0].Path)
	}
}
