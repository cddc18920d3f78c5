package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pranav-agent/pranav/pkg/presenter"
	"github.com/pranav-agent/pranav/pkg/storage"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and edit the agent's persistent memory",
	Long:  `Commands for working with the agent's namespaced key-value memory.`,
}

var memorySetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a value under a key",
	Long: `Store a value under a key. The value is parsed as JSON where
possible, otherwise stored as a plain string:

  pranav memory set color blue
  pranav memory set limits '{"max_results": 10}'`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store := mustOpenStorage(ctx)
		defer store.Close()

		namespace := memoryNamespace(cmd)
		key := args[0]

		var value any
		if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
			value = args[1]
		}

		if err := store.Store(ctx, key, value, namespace); err != nil {
			presenter.Error(err, "Failed to store value")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Stored %q in namespace %q", key, namespace))
	},
}

var memoryGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored under a key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store := mustOpenStorage(ctx)
		defer store.Close()

		value, err := store.Retrieve(ctx, args[0], memoryNamespace(cmd))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				presenter.Error(err, fmt.Sprintf("Key %q not found", args[0]))
			} else {
				presenter.Error(err, "Failed to retrieve value")
			}
			os.Exit(1)
		}
		fmt.Println(string(value))
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete the value stored under a key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store := mustOpenStorage(ctx)
		defer store.Close()

		namespace := memoryNamespace(cmd)
		if err := store.Delete(ctx, args[0], namespace); err != nil {
			presenter.Error(err, "Failed to delete value")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Deleted %q from namespace %q", args[0], namespace))
	},
}

var memoryKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the keys in a namespace",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store := mustOpenStorage(ctx)
		defer store.Close()

		namespace := memoryNamespace(cmd)
		keys, err := store.ListKeys(ctx, namespace)
		if err != nil {
			presenter.Error(err, "Failed to list keys")
			os.Exit(1)
		}
		if len(keys) == 0 {
			presenter.Info(fmt.Sprintf("No keys in namespace %q", namespace))
			return
		}
		for _, key := range keys {
			fmt.Println(key)
		}
	},
}

var memoryNamespacesCmd = &cobra.Command{
	Use:   "namespaces",
	Short: "List the namespaces that contain data",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store := mustOpenStorage(ctx)
		defer store.Close()

		namespaces, err := store.ListNamespaces(ctx)
		if err != nil {
			presenter.Error(err, "Failed to list namespaces")
			os.Exit(1)
		}
		if len(namespaces) == 0 {
			presenter.Info("No namespaces contain data")
			return
		}
		for _, namespace := range namespaces {
			fmt.Println(namespace)
		}
	},
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear a namespace, or all memory with --all",
	Long: `Clear the contents of a namespace. Clearing is destructive, so the
target must be named explicitly: pass --namespace for a single
namespace or --all to wipe every namespace.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		all, _ := cmd.Flags().GetBool("all")
		if !all && !cmd.Flags().Changed("namespace") {
			presenter.Error(
				errors.New("no clear target given"),
				"Specify --namespace <name> to clear one namespace, or --all to clear everything",
			)
			os.Exit(1)
		}

		store := mustOpenStorage(ctx)
		defer store.Close()

		if all {
			if err := store.Clear(ctx, ""); err != nil {
				presenter.Error(err, "Failed to clear memory")
				os.Exit(1)
			}
			presenter.Success("Cleared all namespaces")
			return
		}

		namespace := memoryNamespace(cmd)
		if err := store.Clear(ctx, namespace); err != nil {
			presenter.Error(err, "Failed to clear namespace")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Cleared namespace %q", namespace))
	},
}

func init() {
	for _, cmd := range []*cobra.Command{memorySetCmd, memoryGetCmd, memoryDeleteCmd, memoryKeysCmd, memoryClearCmd} {
		cmd.Flags().String("namespace", storage.DefaultNamespace, "Namespace to operate on")
	}
	memoryClearCmd.Flags().Bool("all", false, "Clear every namespace")

	memoryCmd.AddCommand(memorySetCmd)
	memoryCmd.AddCommand(memoryGetCmd)
	memoryCmd.AddCommand(memoryDeleteCmd)
	memoryCmd.AddCommand(memoryKeysCmd)
	memoryCmd.AddCommand(memoryNamespacesCmd)
	memoryCmd.AddCommand(memoryClearCmd)
}

func memoryNamespace(cmd *cobra.Command) string {
	namespace, err := cmd.Flags().GetString("namespace")
	if err != nil {
		return storage.DefaultNamespace
	}
	return namespace
}

// mustOpenStorage opens the configured backend or exits. Command handlers
// treat an unusable store as fatal.
func mustOpenStorage(ctx context.Context) storage.Backend {
	store, err := openStorage(ctx)
	if err != nil {
		presenter.Error(err, "Failed to open storage")
		os.Exit(1)
	}
	return store
}
