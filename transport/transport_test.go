/*
Copyright (c) the uhf-rfid-sdk authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMockSendRequiresConnection(t *testing.T) {
	m := NewMock()
	err := m.Send(context.Background(), []byte{1})
	require.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, m.Connect(context.Background()))
	require.True(t, m.Connected())
	require.NoError(t, m.Send(context.Background(), []byte{1, 2}))
	require.Equal(t, []byte{1, 2}, m.TakeSent())
	require.Nil(t, m.TakeSent())
}

func TestMockInjectDeliversToSink(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Connect(context.Background()))
	var got []byte
	m.RegisterSink(func(data []byte) { got = append(got, data...) })
	m.Inject([]byte{0x52, 0x46})
	require.Equal(t, []byte{0x52, 0x46}, got)

	m.UnregisterSink()
	m.Inject([]byte{0xFF})
	require.Equal(t, []byte{0x52, 0x46}, got)
}

func TestMockInjectWhileDisconnected(t *testing.T) {
	m := NewMock()
	delivered := false
	m.RegisterSink(func([]byte) { delivered = true })
	m.Inject([]byte{1})
	require.False(t, delivered)
}

func TestTCPAgainstLoopback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverGot := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		serverGot <- buf[:n]
		_, _ = conn.Write([]byte{0xAA, 0xBB})
		// hold the connection open until the client disconnects
		_, _ = conn.Read(buf)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	tr := NewTCP("127.0.0.1", addr.Port)
	received := make(chan []byte, 1)
	tr.RegisterSink(func(data []byte) { received <- data })

	require.NoError(t, tr.Connect(context.Background()))
	require.True(t, tr.Connected())
	require.ErrorIs(t, tr.Connect(context.Background()), ErrAlreadyConnected)

	require.NoError(t, tr.Send(context.Background(), []byte{0x52, 0x46, 0x00}))
	select {
	case got := <-serverGot:
		require.Equal(t, []byte{0x52, 0x46, 0x00}, got)
	case <-time.After(time.Second):
		t.Fatal("server did not receive the frame")
	}
	select {
	case got := <-received:
		require.Equal(t, []byte{0xAA, 0xBB}, got)
	case <-time.After(time.Second):
		t.Fatal("sink did not receive the reply")
	}

	require.NoError(t, tr.Disconnect())
	require.False(t, tr.Connected())
	require.ErrorIs(t, tr.Send(context.Background(), []byte{1}), ErrNotConnected)
	// Disconnect is idempotent
	require.NoError(t, tr.Disconnect())
}

func TestTCPPeerCloseDisconnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	addr := ln.Addr().(*net.TCPAddr)
	tr := NewTCP("127.0.0.1", addr.Port)
	require.NoError(t, tr.Connect(context.Background()))
	require.Eventually(t, func() bool { return !tr.Connected() }, time.Second, 5*time.Millisecond)
}

func TestTCPConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	tr := NewTCP("127.0.0.1", addr.Port)
	require.Error(t, tr.Connect(context.Background()))
	require.False(t, tr.Connected())
}

func TestUDPRoundTrip(t *testing.T) {
	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer server.Close()
	go func() {
		buf := make([]byte, 64)
		n, peer, err := server.ReadFromUDP(buf)
		if err != nil {
			return
		}
		_, _ = server.WriteToUDP(buf[:n], peer)
	}()

	tr := NewUDP("127.0.0.1", server.LocalAddr().(*net.UDPAddr).Port)
	received := make(chan []byte, 1)
	tr.RegisterSink(func(data []byte) { received <- data })
	require.NoError(t, tr.Connect(context.Background()))
	defer tr.Disconnect()

	require.NoError(t, tr.Send(context.Background(), []byte{0x52, 0x46}))
	select {
	case got := <-received:
		require.Equal(t, []byte{0x52, 0x46}, got)
	case <-time.After(time.Second):
		t.Fatal("no echo received")
	}
}
