package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	return &sqs.SendMessageOutput{}, f.err
}

func TestSQSClientSend(t *testing.T) {
	fake := &fakeSQS{}
	client := &SQSClient{client: fake, queueURL: "https://sqs.example/queue"}

	require.NoError(t, client.Send(context.Background(), Message{RecordingID: "r1", UserID: "u1", Version: MessageVersion}))
	assert.Equal(t, "https://sqs.example/queue", aws.ToString(fake.input.QueueUrl))

	decoded, err := DecodeMessage([]byte(aws.ToString(fake.input.MessageBody)))
	require.NoError(t, err)
	assert.Equal(t, "r1", decoded.RecordingID)
}

func TestSQSClientSendError(t *testing.T) {
	client := &SQSClient{client: &fakeSQS{err: errors.New("throttled")}, queueURL: "q"}
	err := client.Send(context.Background(), Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestNewSQSClientRequiresURL(t *testing.T) {
	_, err := NewSQSClient(context.Background(), "", " ")
	require.Error(t, err)
}
