package shm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestMapShared(t *testing.T) {
	file, err := Create()
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, file.Truncate(64))

	w, err := MapShared(file, 64, unix.PROT_READ|unix.PROT_WRITE)
	require.NoError(t, err)
	defer w.Unmap()

	r, err := MapShared(file, 64, unix.PROT_READ)
	require.NoError(t, err)
	defer r.Unmap()

	copy(w[8:], "visible")
	assert.Equal(t, "visible", string(r[8:15]))
}
