package telnet

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeConn returns a Conn over one end of a pipe plus the raw peer end.
func pipeConn(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return NewConn(server, 0, 0), client
}

func readLineAsync(conn *Conn) chan struct {
	line string
	err  error
} {
	ch := make(chan struct {
		line string
		err  error
	}, 1)
	go func() {
		line, err := conn.ReadLine()
		ch <- struct {
			line string
			err  error
		}{line, err}
	}()
	return ch
}

func TestReadLineStripsCRLF(t *testing.T) {
	conn, peer := pipeConn(t)
	ch := readLineAsync(conn)

	_, err := peer.Write([]byte("attack Thorn\r\n"))
	require.NoError(t, err)

	res := <-ch
	require.NoError(t, res.err)
	assert.Equal(t, "attack Thorn", res.line)
}

func TestReadLineFiltersIACCommands(t *testing.T) {
	conn, peer := pipeConn(t)
	ch := readLineAsync(conn)

	payload := []byte{IAC, DO, OptSuppressGoAhead, 's', 't', 'a', 't', 'u', 's', '\n'}
	_, err := peer.Write(payload)
	require.NoError(t, err)

	res := <-ch
	require.NoError(t, res.err)
	assert.Equal(t, "status", res.line)
}

func TestReadLineFiltersSubNegotiation(t *testing.T) {
	conn, peer := pipeConn(t)
	ch := readLineAsync(conn)

	payload := []byte{IAC, SB, 24, 0, 'x', 't', 'e', 'r', 'm', IAC, SE, 'o', 'k', '\n'}
	_, err := peer.Write(payload)
	require.NoError(t, err)

	res := <-ch
	require.NoError(t, res.err)
	assert.Equal(t, "ok", res.line)
}

func TestReadLineFiltersControlCharacters(t *testing.T) {
	conn, peer := pipeConn(t)
	ch := readLineAsync(conn)

	_, err := peer.Write([]byte{'a', 7, '\t', 'b', '\n'})
	require.NoError(t, err)

	res := <-ch
	require.NoError(t, res.err)
	assert.Equal(t, "a\tb", res.line)
}

func TestWriteLineAppendsCRLF(t *testing.T) {
	conn, peer := pipeConn(t)

	done := make(chan error, 1)
	go func() {
		done <- conn.WriteLine("melee> ready")
	}()

	buf := make([]byte, 64)
	_ = peer.SetReadDeadline(time.Now().Add(time.Second))
	n, err := peer.Read(buf)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, "melee> ready\r\n", string(buf[:n]))
}

func TestNegotiateSendsSuppressGoAhead(t *testing.T) {
	conn, peer := pipeConn(t)

	done := make(chan error, 1)
	go func() {
		done <- conn.Negotiate()
	}()

	buf := make([]byte, 8)
	_ = peer.SetReadDeadline(time.Now().Add(time.Second))
	n, err := peer.Read(buf)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, []byte{IAC, WILL, OptSuppressGoAhead}, buf[:n])
}
