package dbutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectUnknownConnector(t *testing.T) {
	_, err := Connect(context.Background(), "carrier-pigeon", "postgresql:///clicktunes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestConnectEmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), ConnectorPgx, "")
	require.Error(t, err)
}

func TestConnectPgxIsLazy(t *testing.T) {
	// sql.Open doesn't dial, so a well-formed URL succeeds without a server.
	db, err := Connect(context.Background(), ConnectorPgx, "postgresql://nobody@127.0.0.1:1/none")
	require.NoError(t, err)
	db.Close()
}

func TestConnectorRequiresEnvironment(t *testing.T) {
	for _, k := range []string{"DB_USER", "DB_PASS", "DB_NAME", "INSTANCE_CONNECTION_NAME"} {
		t.Setenv(k, "")
	}
	_, err := Connect(context.Background(), ConnectorCloudSQL, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSTANCE_CONNECTION_NAME")
}
