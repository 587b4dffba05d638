package kv

import (
	"encoding/hex"
	"fmt"
	"github.com/ValentinKolb/serialkv/cmd/util"
	"github.com/ValentinKolb/serialkv/lib/store"
	"github.com/spf13/cobra"
	"io"
	"os"
	"time"
)

// objectView is the printable form of a store.Object
type objectView struct {
	Bucket   string        `json:"bucket" yaml:"bucket"`
	Key      string        `json:"key" yaml:"key"`
	VClock   string        `json:"vclock" yaml:"vclock"`
	Siblings []contentView `json:"siblings" yaml:"siblings"`
}

type contentView struct {
	Value        string    `json:"value" yaml:"value"`
	ContentType  string    `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
}

func newObjectView(obj *store.Object) objectView {
	view := objectView{
		Bucket: obj.Bucket,
		Key:    obj.Key,
		VClock: hex.EncodeToString(obj.VClock),
	}
	for _, c := range obj.Siblings {
		view.Siblings = append(view.Siblings, contentView{
			Value:        string(c.Value),
			ContentType:  c.ContentType,
			LastModified: time.Unix(0, c.LastModified).UTC(),
		})
	}
	return view
}

var (
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Checks that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if err := rpcStore.Ping(); err != nil {
				return err
			}
			rtt := time.Since(start)
			return util.PrintOutput(os.Stdout, map[string]string{"rtt": rtt.String()}, func(w io.Writer) {
				fmt.Fprintf(w, "pong (%s)\n", rtt)
			})
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints the node name and version of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := rpcStore.ServerInfo()
			if err != nil {
				return err
			}
			return util.PrintOutput(os.Stdout, info, func(w io.Writer) {
				fmt.Fprintf(w, "node:    %s\nversion: %s\n", info.Node, info.ServerVersion)
			})
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [bucket] [key]",
		Short: "Gets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, found, err := rpcStore.Get(args[0], args[1])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("key %s/%s not found", args[0], args[1])
			}
			return util.PrintOutput(os.Stdout, newObjectView(obj), func(w io.Writer) {
				for _, c := range obj.Siblings {
					fmt.Fprintf(w, "%s\n", c.Value)
				}
			})
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [bucket] [key] [value]",
		Short: "Stores a value under a key",
		Long: util.WrapString(`Stores a value under a key. Without --vclock the current
			vclock of the key is read first so the value replaces what is stored.
			Use --sibling to store the value next to the existing ones instead.`),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key := args[0], args[1]

			vclock, err := vclockFlag(cmd)
			if err != nil {
				return err
			}
			if sibling, _ := cmd.Flags().GetBool("sibling"); vclock == nil && !sibling {
				obj, found, err := rpcStore.Get(bucket, key)
				if err != nil {
					return err
				}
				if found {
					vclock = obj.VClock
				}
			}

			contentType, _ := cmd.Flags().GetString("content-type")
			newVClock, err := rpcStore.Put(bucket, key, vclock, store.Content{
				Value:       []byte(args[2]),
				ContentType: contentType,
			})
			if err != nil {
				return err
			}
			vclockHex := hex.EncodeToString(newVClock)
			return util.PrintOutput(os.Stdout, map[string]string{"vclock": vclockHex}, func(w io.Writer) {
				fmt.Fprintf(w, "stored successfully (vclock %s)\n", vclockHex)
			})
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [bucket] [key]",
		Short: "Deletes a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vclock, err := vclockFlag(cmd)
			if err != nil {
				return err
			}
			if err := rpcStore.Delete(args[0], args[1], vclock); err != nil {
				return err
			}
			fmt.Println("deleted successfully")
			return nil
		},
	}
	bucketsCmd = &cobra.Command{
		Use:   "buckets",
		Short: "Lists all buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buckets, err := rpcStore.ListBuckets()
			if err != nil {
				return err
			}
			return util.PrintOutput(os.Stdout, buckets, func(w io.Writer) {
				for _, b := range buckets {
					fmt.Fprintln(w, b)
				}
			})
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys [bucket]",
		Short: "Lists all keys of a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := rpcStore.ListKeys(args[0])
			if err != nil {
				return err
			}
			return util.PrintOutput(os.Stdout, keys, func(w io.Writer) {
				for _, k := range keys {
					fmt.Fprintln(w, k)
				}
			})
		},
	}
	clientIDCmd = &cobra.Command{
		Use:   "client-id [new-id]",
		Short: "Prints the client id, or sets it when an id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := rpcStore.SetClientID([]byte(args[0])); err != nil {
					return err
				}
				fmt.Println("client id set successfully")
				return nil
			}
			id, err := rpcStore.ClientID()
			if err != nil {
				return err
			}
			idHex := hex.EncodeToString(id)
			return util.PrintOutput(os.Stdout, map[string]string{"client_id": idHex}, func(w io.Writer) {
				fmt.Fprintln(w, idHex)
			})
		},
	}
)

func init() {
	putCmd.Flags().String("vclock", "", util.WrapString("Hex encoded vclock of the value being replaced"))
	putCmd.Flags().String("content-type", "text/plain", util.WrapString("Content type of the value"))
	putCmd.Flags().Bool("sibling", false, util.WrapString("Store the value as a new sibling instead of replacing the current value"))

	delCmd.Flags().String("vclock", "", util.WrapString("Hex encoded vclock of the value being deleted"))
}

// vclockFlag decodes the --vclock flag, an empty flag yields nil
func vclockFlag(cmd *cobra.Command) ([]byte, error) {
	raw, _ := cmd.Flags().GetString("vclock")
	if raw == "" {
		return nil, nil
	}
	vclock, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("vclock must be hex encoded: %w", err)
	}
	return vclock, nil
}
