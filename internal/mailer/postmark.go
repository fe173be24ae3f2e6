package mailer

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"
	"go.uber.org/zap"

	"github.com/boehs/truthsocial/internal/model"
	"github.com/boehs/truthsocial/pkg/logger"
)

// Mailer 通知邮件端口
type Mailer interface {
	Deliver(ctx context.Context, n *model.Notification, recipientEmail string) error
}

var subjects = map[model.NotificationType]string{
	model.NotificationMention:       "You were mentioned",
	model.NotificationReblog:        "Your post was reposted",
	model.NotificationFollow:        "You have a new follower",
	model.NotificationFavourite:     "Your post was liked",
	model.NotificationFollowRequest: "You have a pending follow request",
	model.NotificationPoll:          "A poll you voted in has ended",
}

// PostmarkMailer 经 Postmark 发送通知邮件
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(serverToken, from string) *PostmarkMailer {
	return &PostmarkMailer{client: postmark.NewClient(serverToken, ""), from: from}
}

func (m *PostmarkMailer) Deliver(ctx context.Context, n *model.Notification, recipientEmail string) error {
	subject, ok := subjects[n.Type]
	if !ok {
		subject = "New notification"
	}
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:     m.from,
		To:       recipientEmail,
		Subject:  subject,
		Tag:      string(n.Type),
		TextBody: fmt.Sprintf("You have a new %s notification.", n.Type),
	})
	if err != nil {
		return err
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message)
	}
	logger.Debug("notification email sent", zap.String("notification", n.ID), zap.String("type", string(n.Type)))
	return nil
}

// NopMailer 本地/测试空实现
type NopMailer struct{}

func (NopMailer) Deliver(context.Context, *model.Notification, string) error { return nil }
