package messages

import (
	"context"
	"testing"

	"github.com/gojuno/minimock/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"max.ks1230/expense-tracker/internal/model/messages/mock"
)

func Test_OnHandledCommand_ShouldSendHandlerResponse(t *testing.T) {
	m := minimock.NewController(t)
	defer m.Finish()
	sender := mock.NewMessageSenderMock(m)
	handler := mock.NewMessageHandlerMock(m)

	handler.HandleMessageMock.Return("Hello! I am ExpenseTracker bot 🤖 Try /help", nil)
	sender.SendMessageMock.
		Expect("Hello! I am ExpenseTracker bot 🤖 Try /help", int64(123)).
		Return(nil)

	model := NewService(sender, handler)
	err := model.HandleIncomingMessage(context.Background(), Message{
		Text:   "/start",
		UserID: 123,
	})

	assert.NoError(t, err)
}

func Test_OnHandlerError_ShouldApologizeAndPropagate(t *testing.T) {
	m := minimock.NewController(t)
	defer m.Finish()
	sender := mock.NewMessageSenderMock(m)
	handler := mock.NewMessageHandlerMock(m)

	handler.HandleMessageMock.Return("", errors.New("database gone"))
	sender.SendMessageMock.
		Expect("Sorry, something wrong happened...", int64(123)).
		Return(nil)

	model := NewService(sender, handler)
	err := model.HandleIncomingMessage(context.Background(), Message{
		Text:   "/categories",
		UserID: 123,
	})

	assert.Error(t, err)
}
