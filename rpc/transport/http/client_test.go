package http

import (
	"testing"

	"github.com/signalserve/skv/rpc/common"
)

// TestConnectRejectsEmptyEndpoints tests that Connect fails for a config
// without endpoints instead of leaving a transport that cannot send
func TestConnectRejectsEmptyEndpoints(t *testing.T) {
	clientTransport := NewHttpClientTransport()

	if err := clientTransport.Connect(common.ClientConfig{}); err == nil {
		t.Fatal("expected error for empty endpoint list")
	}
}
