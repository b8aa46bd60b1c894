package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/fheregistry/internal/api"
	"github.com/dmitrijs2005/fheregistry/internal/client/models"
	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/dmitrijs2005/fheregistry/internal/timex"
	"github.com/holiman/uint256"
	gethcommon "github.com/luxfi/geth/common"
	"github.com/spf13/cobra"
)

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid message id %q", s)
	}
	return id, nil
}

func parseAddress(s string) (*gethcommon.Address, error) {
	if s == "" {
		return nil, nil
	}
	if !gethcommon.IsHexAddress(s) {
		return nil, fmt.Errorf("invalid address %q", s)
	}
	addr := gethcommon.HexToAddress(s)
	return &addr, nil
}

// run opens a client, applies the request timeout and closes the client
// when fn returns.
func (a *App) run(cmd *cobra.Command, fn func(ctx context.Context, c registryClient) error) error {
	c, err := a.client()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()
	return fn(ctx, c)
}

func infoCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show registry address, message count and event topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c registryClient) error {
				info, err := c.Info(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "registry: %s\n", info.Registry.Hex())
				fmt.Fprintf(out, "messages: %d\n", info.TotalCount)
				fmt.Fprintf(out, "topic:    %s\n", info.EventTopic.Hex())
				return nil
			})
		},
	}
}

func submitCmd(a *App) *cobra.Command {
	var timestamp string
	cmd := &cobra.Command{
		Use:   "submit <content>",
		Short: "Encrypt a value and store it as a new message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := uint256.FromDecimal(args[0])
			if err != nil {
				return fmt.Errorf("content must be a decimal integer: %w", err)
			}
			ts := uint256.NewInt(timex.UnixSeconds(time.Now()))
			if timestamp != "" {
				if ts, err = uint256.FromDecimal(timestamp); err != nil {
					return fmt.Errorf("timestamp must be a decimal integer: %w", err)
				}
			}

			return a.run(cmd, func(ctx context.Context, c registryClient) error {
				in, err := c.Encrypt(ctx, content, ts)
				if err != nil {
					return err
				}
				id, err := c.Submit(ctx, in.Content, in.Timestamp, in.Proof)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "submitted message %d\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "timestamp to encrypt (default: now, unix seconds)")
	return cmd
}

func listCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the ids of your messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c registryClient) error {
				ids, err := c.UserMessages(ctx)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no messages")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func countCmd(a *App) *cobra.Command {
	var identity string
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the messages of an identity (default: yours)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(identity)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, c registryClient) error {
				n, err := c.UserMessageCount(ctx, addr)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&identity, "identity", "", "address to count messages for")
	return cmd
}

func totalCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Show the number of messages in the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c registryClient) error {
				n, err := c.TotalCount(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func metaCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "meta <id>",
		Short: "Show sender and creation time of a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, c registryClient) error {
				md, err := c.MessageMetadata(ctx, id)
				if err != nil {
					return err
				}
				if !md.Exists {
					fmt.Fprintf(cmd.OutOrStdout(), "message %d does not exist\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sender:     %s\ncreated at: %s\n",
					md.Sender.Hex(), time.Unix(int64(md.CreatedAt), 0).UTC().Format(time.RFC3339))
				return nil
			})
		},
	}
}

func ownerCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "owner <id>",
		Short: "Check whether you own a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, c registryClient) error {
				ok, err := c.IsMessageOwner(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			})
		},
	}
}

// fetchPlain reads both handles of message id, decrypts them and returns
// the message in cache form.
func fetchPlain(ctx context.Context, c registryClient, owner gethcommon.Address, id uint64) (*models.CachedMessage, error) {
	ch, err := c.EncryptedContent(ctx, id)
	if err != nil {
		return nil, err
	}
	th, err := c.EncryptedTimestamp(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := c.Decrypt(ctx, ch)
	if err != nil {
		return nil, err
	}
	ts, err := c.Decrypt(ctx, th)
	if err != nil {
		return nil, err
	}
	md, err := c.MessageMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CachedMessage{
		ID:        id,
		Owner:     owner,
		Content:   content.Dec(),
		Timestamp: ts.Dec(),
		CreatedAt: md.CreatedAt,
	}, nil
}

func printMessage(cmd *cobra.Command, m *models.CachedMessage) {
	fmt.Fprintf(cmd.OutOrStdout(), "#%d content=%s timestamp=%s created_at=%d\n", m.ID, m.Content, m.Timestamp, m.CreatedAt)
}

func showCmd(a *App) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Decrypt one of your messages (cached locally)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			owner, err := a.identity()
			if err != nil {
				return err
			}

			return a.run(cmd, func(ctx context.Context, c registryClient) error {
				cache, err := openCache(ctx, a.config.CachePath)
				if err != nil {
					return err
				}
				defer cache.Close()

				info, err := c.Info(ctx)
				if err != nil {
					return err
				}
				if err := cache.Bind(ctx, info.Registry); err != nil {
					return err
				}

				if !refresh {
					m, err := cache.Get(ctx, owner, id)
					if err == nil {
						printMessage(cmd, m)
						return nil
					}
					if !errors.Is(err, common.ErrorNotFound) {
						return err
					}
				}

				m, err := fetchPlain(ctx, c, owner, id)
				if err != nil {
					return err
				}
				if err := cache.Put(ctx, m); err != nil {
					return err
				}
				printMessage(cmd, m)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the local cache")
	return cmd
}

func cachedCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cached",
		Short: "List your locally cached messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.identity()
			if err != nil {
				return err
			}
			cache, err := openCache(cmd.Context(), a.config.CachePath)
			if err != nil {
				return err
			}
			defer cache.Close()

			list, err := cache.List(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "cache is empty")
				return nil
			}
			for _, m := range list {
				printMessage(cmd, m)
			}
			return nil
		},
	}
}

func watchCmd(a *App) *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print MessageCreated events as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(sender)
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			return c.Watch(cmd.Context(), addr, func(e *api.MessageEvent) error {
				fmt.Fprintf(cmd.OutOrStdout(), "MessageCreated id=%d sender=%s created_at=%d\n", e.MessageID, e.Sender.Hex(), e.CreatedAt)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "", "only show messages from this address")
	return cmd
}
