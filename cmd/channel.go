package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// ChannelShow prints a channel profile and one page of its uploads.
func (r *Runner) ChannelShow(ctx context.Context, cmd *cli.Command) error {
	username, err := requireArg(cmd, "username")
	if err != nil {
		return err
	}

	channel, err := r.services.Users.ChannelProfile(ctx, username, pageQueryFrom(cmd))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(channel, cmd.Bool("pretty"))
	}

	title := channel.Username
	if channel.FullName != "" {
		title = channel.FullName + " (@" + channel.Username + ")"
	}
	r.writePlainHeader(title)
	r.writePlain("ID:          %s\n", channel.ID)
	r.writePlain("Subscribers: %d\n", channel.SubscribersCount)
	r.writePlain("Subscribed:  %v\n", channel.IsSubscribed)
	r.writePlain("Videos:      %d\n", channel.VideosCount)
	if channel.Description != "" {
		r.writePlainln("%s", channel.Description)
	}
	r.writePlain("\n")

	footer := ""
	if channel.HasNextPage {
		footer = fmt.Sprintf("More uploads: --page %d", max(int(cmd.Int("page")), 1)+1)
	}
	return r.writeVideos(cmd, channel.UploadedVideos, footer)
}

// ChannelSubscribe subscribes to a channel.
func (r *Runner) ChannelSubscribe(ctx context.Context, cmd *cli.Command) error {
	return r.toggleSubscription(ctx, cmd, true)
}

// ChannelUnsubscribe unsubscribes from a channel.
func (r *Runner) ChannelUnsubscribe(ctx context.Context, cmd *cli.Command) error {
	return r.toggleSubscription(ctx, cmd, false)
}

func (r *Runner) toggleSubscription(ctx context.Context, cmd *cli.Command, subscribe bool) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}
	if subscribe {
		if err := r.services.Subscriptions.Subscribe(ctx, id); err != nil {
			return err
		}
		return r.writePlain("✓ Subscribed to %s\n", id)
	}
	if err := r.services.Subscriptions.Unsubscribe(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Unsubscribed from %s\n", id)
}

// ChannelStatus prints whether the viewer is subscribed.
func (r *Runner) ChannelStatus(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	status, err := r.services.Subscriptions.Status(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}
	r.writePlain("Subscribed:  %v\n", status.IsSubscribed)
	return r.writePlain("Subscribers: %d\n", status.SubscribersCount)
}

// SubscriptionsList prints the channels the viewer follows.
func (r *Runner) SubscriptionsList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}

	subs, err := r.services.Subscriptions.List(ctx, pageQueryFrom(cmd))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(subs, cmd.Bool("pretty"))
	}
	if len(subs) == 0 {
		return r.writePlain("No subscriptions\n")
	}

	for _, s := range subs {
		name := s.Channel.Username
		if name == "" {
			name = s.Channel.ID
		}
		if s.Channel.FullName != "" {
			name += " (" + s.Channel.FullName + ")"
		}
		r.writePlain("• %s  [%s]\n", name, s.Channel.ID)
	}
	return nil
}

// HistoryList prints the watch history.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}
	videos, err := r.services.History.List(ctx, pageQueryFrom(cmd))
	if err != nil {
		return err
	}
	return r.writeVideos(cmd, videos, "")
}

// HistoryClear deletes the watch history.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}
	if err := r.services.History.Clear(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Watch history cleared\n")
}

// HistoryRemove deletes one entry from the watch history.
func (r *Runner) HistoryRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}
	if err := r.services.History.Remove(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s from history\n", id)
}

// AdminPending prints videos awaiting approval.
func (r *Runner) AdminPending(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}
	page, err := r.services.Videos.PendingVideos(ctx, pageQueryFrom(cmd))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}
	return r.writeVideos(cmd, page.Docs, pageFooter(page))
}

// AdminApprove approves a video.
func (r *Runner) AdminApprove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	user, err := r.requireUser(ctx)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		r.logger.Warn("approving without the admin role; the backend will likely refuse", "user", user.Username)
	}

	video, err := r.services.Videos.Approve(ctx, id)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Approved %q\n", video.Title)
}
