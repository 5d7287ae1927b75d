package models

type LeaseStatus string

const (
	LeaseStatusActive LeaseStatus = "active"
	LeaseStatusNotice LeaseStatus = "notice"
	LeaseStatusEnded  LeaseStatus = "ended"
)

type LeaseType string

const (
	LeaseTypeVide     LeaseType = "vide"
	LeaseTypeMeuble   LeaseType = "meuble"
	LeaseTypeMobilite LeaseType = "mobilite"
)

type ChargePeriodicity string

const (
	PeriodicityMonthly   ChargePeriodicity = "monthly"
	PeriodicityQuarterly ChargePeriodicity = "quarterly"
	PeriodicityYearly    ChargePeriodicity = "yearly"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusLate  InvoiceStatus = "late"
	InvoiceStatusPaid  InvoiceStatus = "paid"
)

type ReminderLevel string

const (
	ReminderLevelAmiable       ReminderLevel = "amiable"
	ReminderLevelFormelle      ReminderLevel = "formelle"
	ReminderLevelMiseEnDemeure ReminderLevel = "mise_en_demeure"
)

type SignerRole string

const (
	SignerRolePrincipalTenant SignerRole = "locataire_principal"
	SignerRoleSecondaryTenant SignerRole = "locataire_secondaire"
	SignerRoleGuarantor       SignerRole = "garant"
	SignerRoleOwner           SignerRole = "proprietaire"
)

type ReconciliationStatus string

const (
	ReconciliationStatusCalculated ReconciliationStatus = "calculated"
	ReconciliationStatusSettled    ReconciliationStatus = "settled"
)

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleOwner  UserRole = "owner"
	UserRoleTenant UserRole = "tenant"
)

// Integration event types written to the outbox.
const (
	EventTypeChargeReconciled = "Charge.Reconciled"
	EventTypeReminderIssued   = "Reminder.Issued"
)
