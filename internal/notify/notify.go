package notify

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/pebbe/zmq4"
)

// Notifier tells the plot renderer which subjects have new data. Messages
// are two frames: the import id and the subject id.
type Notifier struct {
	socket *zmq4.Socket
}

func New(endpoint string) (*Notifier, error) {
	soc, err := zmq4.NewSocket(zmq4.PUSH)
	if err != nil {
		return nil, err
	}
	if err := soc.Connect(endpoint); err != nil {
		soc.Close()
		return nil, err
	}
	return &Notifier{socket: soc}, nil
}

func (this *Notifier) Notify(importId uuid.UUID, subjectId int) error {
	_, err := this.socket.SendMessageDontwait(importId.String(), strconv.Itoa(subjectId))
	return err
}

func (this *Notifier) Close() error {
	return this.socket.Close()
}
