package scheduler

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/lexflow/lexflow-api/caseflow"
	"github.com/lexflow/lexflow-api/databases"
	"github.com/lexflow/lexflow-api/models"
	templates "github.com/lexflow/lexflow-api/templates/html"
)

// Scheduler runs the periodic hearing reminder job. A hearing is reminded
// exactly once: reminderSentAt doubles as the dedupe marker, so overlapping
// runs cannot double-send.
type Scheduler struct {
	cron *cron.Cron
	HDB  databases.HearingDatabase
	CDB  databases.CaseDatabase
	UDB  databases.UserDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(hDB databases.HearingDatabase, cDB databases.CaseDatabase, uDB databases.UserDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		HDB:  hDB,
		CDB:  cDB,
		UDB:  uDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Send hearing reminders at the top of every hour
	_, err := s.cron.AddFunc("0 * * * *", s.sendHearingReminders)
	if err != nil {
		zap.S().Errorw("failed to register hearing reminder job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Hearing reminder scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Hearing reminder scheduler stopped")
}

// sendHearingReminders finds hearings happening within 24 hours that have
// not been reminded yet and emails their participants
func (s *Scheduler) sendHearingReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	oneDayFromNow := now.Add(24 * time.Hour)

	filter := bson.M{
		"hearing.status": models.HearingStatusScheduled,
		"hearing.date": bson.M{
			"$gt": primitive.NewDateTimeFromTime(now),
			"$lt": primitive.NewDateTimeFromTime(oneDayFromNow),
		},
		"hearing.reminderSentAt": nil,
	}

	hearings, err := s.HDB.Find(ctx, filter, nil)
	if err != nil {
		zap.S().Errorw("failed to find hearings needing reminder", "error", err)
		return
	}

	sent := 0
	for i := range hearings {
		if s.remindHearing(ctx, &hearings[i]) {
			sent++
		}
	}

	zap.S().Infow("Hearing reminder job complete",
		"hearingsFound", len(hearings),
		"remindersSent", sent,
	)
}

// remindHearing emails every participant of one hearing, then marks it
func (s *Scheduler) remindHearing(ctx context.Context, hearing *models.Hearing) bool {
	caseNumber := ""
	caseTitle := ""
	if oid, err := primitive.ObjectIDFromHex(hearing.Details.CaseID); err == nil {
		if courtCase, err := s.CDB.FindOne(ctx, bson.M{"_id": oid}); err == nil {
			caseNumber = courtCase.Details.CaseNumber
			caseTitle = courtCase.Details.Title
		}
	}

	hearingDate := caseflow.CurrentDate(hearing).Time().Format("Monday, 2 January 2006 at 15:04 MST")

	for _, participantID := range hearing.Details.Participants {
		email, name := s.getUserEmail(ctx, participantID)
		if email == "" {
			continue
		}
		htmlContent := templates.RenderHearingReminderEmail(name, caseNumber, caseTitle, hearingDate, hearing.Details.Location)
		plainText := "Reminder: a hearing for case " + caseNumber + " is scheduled within the next 24 hours at " + hearing.Details.Location + "."
		if err := s.sendEmail(email, name, "Upcoming Hearing Reminder", htmlContent, plainText); err != nil {
			zap.S().Errorw("failed to send hearing reminder email",
				"error", err, "hearingId", hearing.ID.Hex(), "participantId", participantID)
		}
	}

	// Mark as reminded even if some sends failed; re-sending to everyone
	// would be worse than a missed mail for one participant.
	_, err := s.HDB.UpdateOne(ctx, bson.M{"_id": hearing.ID}, bson.M{
		"$set": bson.M{"hearing.reminderSentAt": primitive.NewDateTimeFromTime(time.Now())},
	})
	if err != nil {
		zap.S().Errorw("failed to mark hearing as reminded", "error", err, "hearingId", hearing.ID.Hex())
		return false
	}

	zap.S().Infow("Sent hearing reminder", "hearingId", hearing.ID.Hex())
	return true
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("LexFlow Court Registry", "no-reply@lexflow.app")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}

func (s *Scheduler) getUserEmail(ctx context.Context, userID string) (email, name string) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", ""
	}
	user, err := s.UDB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil || user.Details.Email == "" {
		return "", ""
	}
	return user.Details.Email, user.Details.Name
}
