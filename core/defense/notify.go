package defense

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pfebridge/pfebridge/core"
	"github.com/pfebridge/pfebridge/core/professor"
)

// mailSink emails every jury member when a defense lands on their calendar.
type mailSink struct {
	mailSvc  core.EmailService
	profRepo professor.Repository
	logger   core.Logger
}

var _ EventSink = (*mailSink)(nil)

func NewMailSink(mailSvc core.EmailService, profRepo professor.Repository, logger core.Logger) EventSink {
	return &mailSink{mailSvc: mailSvc, profRepo: profRepo, logger: logger}
}

func (s *mailSink) DefenseScheduled(evt ScheduledEvent) {
	msgs := make([]*core.EmailMessage, 0, len(evt.ProfessorIDs))
	for _, pid := range evt.ProfessorIDs {
		prof, err := s.profRepo.GetProfessorByID(context.Background(), pid)
		if err != nil {
			s.logger.Error(fmt.Sprintf("notifying professor %s: %v", pid, err), err)
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: prof.Name, Address: prof.Email}},
			Subject:      "Jury assignment",
			TemplateName: "defense_scheduled",
			TemplateData: struct {
				Name, Date, Time, DefenseID string
			}{Name: prof.Name, Date: evt.Date, Time: evt.Time, DefenseID: evt.DefenseID},
		})
	}
	s.mailSvc.SendMessages(msgs...)
}
