// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true},
	}
}

func pageFlags(limit int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Usage: "Page number", Value: 1},
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Items per page", Value: limit},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

func idArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

// setupCommand creates the config file and the credential store.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the credential store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Usage: "Backend origin to write into the config"},
			&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing config file"},
		},
		Action: r.Setup,
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in, sign out and manage the account",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email or username and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "password", Usage: "Account password (or VTX_PASSWORD)", Sources: cli.EnvVars("VTX_PASSWORD")},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "full-name", Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "username", Usage: "Account username", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Account password (or VTX_PASSWORD)", Sources: cli.EnvVars("VTX_PASSWORD")},
					&cli.StringFlag{Name: "avatar", Usage: "Path to an avatar image", Required: true},
					&cli.StringFlag{Name: "cover", Usage: "Path to a cover image"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "google",
				Usage: "Sign in with Google in the browser",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "timeout", Usage: "How long to wait for the browser", Value: defaultOAuthTimeout},
					&cli.BoolFlag{Name: "no-browser", Usage: "Print the URL instead of opening it"},
				},
				Action: r.AuthGoogle,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and clear stored credentials",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the session state",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "whoami",
				Usage:  "Fetch the signed-in account",
				Flags:  jsonFlags(),
				Action: r.AuthWhoami,
			},
			{
				Name:  "password",
				Usage: "Change the account password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "old", Usage: "Current password", Required: true},
					&cli.StringFlag{Name: "new", Usage: "New password", Required: true},
				},
				Action: r.AuthPassword,
			},
			{
				Name:  "verify-otp",
				Usage: "Confirm the one-time code sent after registration",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user-id", Usage: "Account id (default: signed-in account)"},
					&cli.StringFlag{Name: "otp", Usage: "One-time code", Required: true},
				},
				Action: r.AuthVerifyOTP,
			},
		},
	}
}

// videosCommand handles catalog and upload operations
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "videos",
		Aliases: []string{"v"},
		Usage:   "Browse, upload and manage videos",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List a page of the public catalog",
				Flags:  withFlags(pageFlags(9), jsonFlags()),
				Action: r.VideosList,
			},
			{
				Name:      "get",
				Usage:     "Show one video",
				Arguments: idArg(),
				Flags: withFlags(jsonFlags(), []cli.Flag{
					&cli.BoolFlag{Name: "owner", Usage: "Use the owner/admin view, which includes unpublished videos"},
				}),
				Action: r.VideosGet,
			},
			{
				Name:      "search",
				Usage:     "Search the catalog",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     withFlags(pageFlags(12), jsonFlags()),
				Action:    r.VideosSearch,
			},
			{
				Name:   "mine",
				Usage:  "List your uploads",
				Flags:  withFlags(pageFlags(9), jsonFlags()),
				Action: r.VideosMine,
			},
			{
				Name:      "comments",
				Usage:     "List the comments on a video",
				Arguments: idArg(),
				Flags:     jsonFlags(),
				Action:    r.VideosComments,
			},
			{
				Name:      "comment",
				Usage:     "Comment on a video",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "text"}},
				Action:    r.VideosComment,
			},
			{
				Name:  "upload",
				Usage: "Upload a video",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Path to the video file", Required: true},
					&cli.StringFlag{Name: "thumbnail", Usage: "Path to a thumbnail image"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title", Required: true},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description"},
					&cli.BoolFlag{Name: "publish", Usage: "Publish immediately", Value: true},
				},
				Action: r.VideosUpload,
			},
			{
				Name:      "update",
				Usage:     "Edit a video",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "description", Usage: "New description"},
					&cli.StringFlag{Name: "thumbnail", Usage: "Path to a new thumbnail"},
					&cli.BoolFlag{Name: "publish", Usage: "Set the published flag"},
				},
				Action: r.VideosUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a video",
				Arguments: idArg(),
				Action:    r.VideosDelete,
			},
			{
				Name:      "publish",
				Usage:     "Toggle whether a video is published",
				Arguments: idArg(),
				Action:    r.VideosPublish,
			},
			{
				Name:      "privacy",
				Usage:     "Toggle a video between public and private",
				Arguments: idArg(),
				Action:    r.VideosPrivacy,
			},
			{
				Name:  "export",
				Usage: "Export every page of a collection to files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Collection: catalog, pending or channel:<username>", Value: "catalog"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, csv, markdown or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.IntFlag{Name: "max-pages", Usage: "Stop after this many pages (0 for all)"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent page fetches (default from config)"},
					&cli.BoolFlag{Name: "thumbnails", Usage: "Download thumbnails for markdown exports"},
					&cli.BoolFlag{Name: "history", Usage: "Show recent export runs instead of exporting"},
				},
				Action: r.VideosExport,
			},
		},
	}
}

// channelCommand handles public channel operations
func channelCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "channel",
		Aliases: []string{"ch"},
		Usage:   "View channels and manage subscriptions",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a channel and its uploads",
				Arguments: []cli.Argument{&cli.StringArg{Name: "username"}},
				Flags:     withFlags(pageFlags(10), jsonFlags()),
				Action:    r.ChannelShow,
			},
			{
				Name:      "subscribe",
				Usage:     "Subscribe to a channel",
				Arguments: idArg(),
				Action:    r.ChannelSubscribe,
			},
			{
				Name:      "unsubscribe",
				Usage:     "Unsubscribe from a channel",
				Arguments: idArg(),
				Action:    r.ChannelUnsubscribe,
			},
			{
				Name:      "status",
				Usage:     "Show whether you are subscribed to a channel",
				Arguments: idArg(),
				Flags:     jsonFlags(),
				Action:    r.ChannelStatus,
			},
		},
	}
}

// subscriptionsCommand lists the viewer's subscriptions
func subscriptionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "subscriptions",
		Aliases: []string{"subs"},
		Usage:   "Channels you are subscribed to",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List subscriptions",
				Flags:  withFlags(pageFlags(20), jsonFlags()),
				Action: r.SubscriptionsList,
			},
		},
	}
}

// historyCommand handles watch history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Watch history",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List watched videos",
				Flags:  withFlags(pageFlags(20), jsonFlags()),
				Action: r.HistoryList,
			},
			{
				Name:   "clear",
				Usage:  "Clear the watch history",
				Action: r.HistoryClear,
			},
			{
				Name:      "remove",
				Usage:     "Remove one video from the history",
				Arguments: idArg(),
				Action:    r.HistoryRemove,
			},
		},
	}
}

// adminCommand handles moderation
func adminCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Moderation commands",
		Commands: []*cli.Command{
			{
				Name:   "pending",
				Usage:  "List videos awaiting approval",
				Flags:  withFlags(pageFlags(12), jsonFlags()),
				Action: r.AdminPending,
			},
			{
				Name:      "approve",
				Usage:     "Approve a video",
				Arguments: idArg(),
				Action:    r.AdminApprove,
			},
		},
	}
}

// apiCommand handles raw API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Raw authenticated API calls",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a path and print the response",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     jsonFlags(),
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST a JSON body to a path",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: withFlags(jsonFlags(), []cli.Flag{
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON body to send"},
					&cli.StringFlag{Name: "method", Aliases: []string{"X"}, Usage: "HTTP method", Value: "POST"},
				}),
				Action: r.APIPost,
			},
		},
	}
}

// proxyCommand serves the /api/v1 reverse proxy
func proxyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "proxy",
		Usage: "Forward /api/v1 to the backend for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "Address to listen on (default from config)"},
			&cli.StringFlag{Name: "target", Usage: "Backend origin (default api.base_url)"},
		},
		Action: r.Proxy,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse the catalog interactively",
		Action:  r.TUI,
	}
}
