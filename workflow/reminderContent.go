package workflow

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
)

var validate = validator.New()

// ReminderContent is the subject/body pair handed to the notification
// dispatcher. This engine only produces content, it never sends.
type ReminderContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// RenderReminder produces the reminder content for a late invoice. Pure
// string templating over the record's fields; a missing required field is a
// validation error, not a degraded result.
func RenderReminder(level models.ReminderLevel, inv models.LateInvoice) (*ReminderContent, error) {
	if err := validate.Struct(inv); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			return nil, fmt.Errorf("%w: late invoice %d: %v", utils.ErrorValidation, inv.InvoiceId, utils.ProcessValidationErrors(err))
		}
		return nil, fmt.Errorf("%w: late invoice %d: %v", utils.ErrorValidation, inv.InvoiceId, err)
	}

	amount := inv.Amount.StringFixed(2)
	dueDate := inv.DueDate.Format("02/01/2006")

	switch level {
	case models.ReminderLevelAmiable:
		return &ReminderContent{
			Subject: fmt.Sprintf("Rappel : loyer en attente de règlement - %s", inv.PropertyAddress),
			Body: fmt.Sprintf(
				"Bonjour %s,\n\n"+
					"Sauf erreur de notre part, le règlement de votre loyer d'un montant de %s EUR, échu le %s, ne nous est pas encore parvenu.\n\n"+
					"Nous vous remercions de bien vouloir régulariser votre situation dans les meilleurs délais. "+
					"Si votre paiement s'est croisé avec ce message, veuillez ne pas en tenir compte.\n\n"+
					"Cordialement,\nLa gestion locative",
				inv.TenantName, amount, dueDate),
		}, nil

	case models.ReminderLevelFormelle:
		return &ReminderContent{
			Subject: fmt.Sprintf("Relance : loyer impayé - %s", inv.PropertyAddress),
			Body: fmt.Sprintf(
				"Bonjour %s,\n\n"+
					"Malgré notre précédent rappel, le loyer d'un montant de %s EUR échu le %s demeure impayé. "+
					"Votre règlement présente à ce jour un retard de %d jours.\n\n"+
					"Nous vous demandons de procéder au paiement intégral dans un délai de 8 jours à compter de la réception de ce courrier, "+
					"faute de quoi nous serons contraints d'engager la procédure de mise en demeure.\n\n"+
					"Cordialement,\nLa gestion locative",
				inv.TenantName, amount, dueDate, inv.DaysLate),
		}, nil

	case models.ReminderLevelMiseEnDemeure:
		return &ReminderContent{
			Subject: fmt.Sprintf("MISE EN DEMEURE - Loyer impayé - %s", inv.PropertyAddress),
			Body: fmt.Sprintf(
				"%s,\n\n"+
					"Malgré nos relances successives, le loyer d'un montant de %s EUR échu le %s reste impayé, "+
					"soit un retard de %d jours à la date de la présente.\n\n"+
					"En conséquence, nous vous mettons en demeure de régler l'intégralité des sommes dues sous huitaine. "+
					"À défaut de paiement, la clause résolutoire prévue à l'article 24 de la loi n°89-462 du 6 juillet 1989 "+
					"sera mise en œuvre et la résiliation du bail poursuivie devant le juge des contentieux de la protection, "+
					"sans autre avis de notre part.\n\n"+
					"La présente mise en demeure fait courir les intérêts de retard au taux légal.\n\n"+
					"La gestion locative",
				inv.TenantName, amount, dueDate, inv.DaysLate),
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown reminder level %q", utils.ErrorValidation, level)
	}
}
