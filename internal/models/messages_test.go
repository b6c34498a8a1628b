package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentRequestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     PaymentRequestMessage
		wantErr bool
	}{
		{name: "valid", msg: PaymentRequestMessage{OrderID: 1, UserID: 7, Amount: 20.00}},
		{name: "missing order", msg: PaymentRequestMessage{UserID: 7, Amount: 20.00}, wantErr: true},
		{name: "missing user", msg: PaymentRequestMessage{OrderID: 1, Amount: 20.00}, wantErr: true},
		{name: "zero amount", msg: PaymentRequestMessage{OrderID: 1, UserID: 7}, wantErr: true},
		{name: "negative amount", msg: PaymentRequestMessage{OrderID: 1, UserID: 7, Amount: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPaymentCompletedMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     PaymentCompletedMessage
		wantErr bool
	}{
		{name: "valid", msg: PaymentCompletedMessage{OrderID: 1, PaymentID: 42}},
		{name: "missing order", msg: PaymentCompletedMessage{PaymentID: 42}, wantErr: true},
		{name: "missing payment", msg: PaymentCompletedMessage{OrderID: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotificationRequestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     NotificationRequestMessage
		wantErr bool
	}{
		{name: "valid", msg: NotificationRequestMessage{UserID: 7, Type: NotificationTypeOrder, Title: "Order Created"}},
		{name: "missing user", msg: NotificationRequestMessage{Type: NotificationTypeOrder, Title: "Order Created"}, wantErr: true},
		{name: "missing type", msg: NotificationRequestMessage{UserID: 7, Title: "Order Created"}, wantErr: true},
		{name: "missing title", msg: NotificationRequestMessage{UserID: 7, Type: NotificationTypeOrder}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrderItemsRoundTrip(t *testing.T) {
	items := OrderItems{
		{Name: "Widget", Quantity: 2, Price: 10.00},
		{Name: "Gadget", Quantity: 1, Price: 5.50},
	}

	value, err := items.Value()
	assert.NoError(t, err)

	var got OrderItems
	assert.NoError(t, got.Scan(value))
	assert.Equal(t, items, got)

	var fromNil OrderItems
	assert.NoError(t, fromNil.Scan(nil))
	assert.Nil(t, fromNil)
}
