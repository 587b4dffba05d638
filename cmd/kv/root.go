package kv

import (
	"github.com/ValentinKolb/serialkv/cmd/util"
	"github.com/ValentinKolb/serialkv/lib/store"
	"github.com/ValentinKolb/serialkv/rpc/client"
	"github.com/ValentinKolb/serialkv/rpc/transport"
	"github.com/spf13/cobra"
	"io"
)

// metricsWriter is implemented by client transports that keep request metrics
type metricsWriter interface {
	WriteMetrics(w io.Writer)
}

var (
	rpcStore     store.IStore
	rpcTransport transport.IRPCClientTransport

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(pingCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(putCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(bucketsCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(clientIDCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the RPC store client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the KV store client, conflicting siblings are resolved on read
	rpcStore, err = client.NewRPCStore(
		*config,
		t,
		s,
		store.LastWriteWins,
	)
	if err != nil {
		return err
	}
	rpcTransport = t

	return nil
}

// closeKVClient releases the connection of the RPC store client
func closeKVClient(_ *cobra.Command, _ []string) error {
	if rpcTransport == nil {
		return nil
	}
	return rpcTransport.Close()
}
