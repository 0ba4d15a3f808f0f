package store

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

const systemTablesSQL = `
CREATE TABLE IF NOT EXISTS _validation_rules (
    id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    rule_code        TEXT NOT NULL,
    target_entity    TEXT,
    target_field     TEXT,
    validation_rule  TEXT NOT NULL,
    validation_value TEXT,
    custom_validator TEXT,
    error_message    TEXT NOT NULL,
    error_severity   TEXT NOT NULL DEFAULT 'Error',
    block_submission BOOLEAN NOT NULL DEFAULT false,
    category         TEXT,
    status           TEXT,
    source_system    TEXT,
    entity_type      TEXT,
    request_type     TEXT,
    priority         INT NOT NULL DEFAULT 100,
    locale           TEXT NOT NULL DEFAULT 'en',
    active           BOOLEAN NOT NULL DEFAULT true,
    created_at       TIMESTAMPTZ DEFAULT NOW(),
    updated_at       TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_validation_rules_active_locale
    ON _validation_rules(active, locale);

CREATE TABLE IF NOT EXISTS _section_rules (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    rule_code         TEXT NOT NULL,
    section_name      TEXT NOT NULL,
    section_label     TEXT,
    minimum_count     INT NOT NULL DEFAULT 0,
    maximum_count     INT,
    filter_criteria   TEXT,
    min_error_message TEXT,
    max_error_message TEXT,
    block_submission  BOOLEAN NOT NULL DEFAULT false,
    status            TEXT,
    source_system     TEXT,
    entity_type       TEXT,
    request_type      TEXT,
    priority          INT NOT NULL DEFAULT 100,
    locale            TEXT NOT NULL DEFAULT 'en',
    active            BOOLEAN NOT NULL DEFAULT true,
    created_at        TIMESTAMPTZ DEFAULT NOW(),
    updated_at        TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_section_rules_active_locale
    ON _section_rules(active, locale);

CREATE TABLE IF NOT EXISTS _users (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    roles         TEXT[] DEFAULT '{}',
    active        BOOLEAN DEFAULT true,
    created_at    TIMESTAMPTZ DEFAULT NOW(),
    updated_at    TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS _refresh_tokens (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id    UUID NOT NULL REFERENCES _users(id) ON DELETE CASCADE,
    token      UUID NOT NULL UNIQUE DEFAULT gen_random_uuid(),
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_token ON _refresh_tokens(token);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires ON _refresh_tokens(expires_at);
`

// seedRulesSQL loads the default rule set on an empty database. Scope
// columns left NULL match every context; priority orders execution.
const seedRulesSQL = `
INSERT INTO _validation_rules
    (rule_code, target_entity, target_field, validation_rule, validation_value, custom_validator,
     error_message, error_severity, block_submission, category, status, source_system, entity_type, request_type, priority, locale)
VALUES
    ('VAL_NAME_REQ',      'BusinessPartnerRequests', 'partnerName',  'Required',  NULL,   NULL,
     'Partner Name is required', 'Error', true, 'General', NULL, NULL, NULL, NULL, 10, 'en'),
    ('VAL_NAME_MIN',      'BusinessPartnerRequests', 'partnerName',  'MinLength', '3',    NULL,
     '{fieldLabel} must be at least {minLength} characters (current: {actualLength})', 'Error', true, 'General', NULL, NULL, NULL, NULL, 20, 'en'),
    ('VAL_NAME_MAX',      'BusinessPartnerRequests', 'partnerName',  'MaxLength', '120',  NULL,
     '{fieldLabel} must not exceed {maxLength} characters (current: {actualLength})', 'Error', true, 'General', NULL, NULL, NULL, NULL, 30, 'en'),
    ('VAL_NAME_LEGIT',    'BusinessPartnerRequests', 'partnerName',  'Custom',    NULL,   'validatePartnerNameLegitimacy',
     'Partner name appears to be a test or placeholder name', 'Warning', false, 'Quality', NULL, NULL, NULL, NULL, 40, 'en'),
    ('VAL_EMAIL_FMT',     'PartnerEmails',  'emailAddress', 'Email',  NULL, NULL,
     'Email address format is invalid', 'Error', true, 'Contact', NULL, NULL, NULL, NULL, 50, 'en'),
    ('VAL_EMAIL_DOMAIN',  'PartnerEmails',  'emailAddress', 'Custom', NULL, 'validateEmailDomain',
     'Disposable or temporary email addresses are not allowed', 'Warning', false, 'Contact', NULL, NULL, NULL, NULL, 60, 'en'),
    ('VAL_VAT_FMT',       'PartnerVatIds',  'vatNumber',    'VAT',    NULL, NULL,
     'VAT number format is invalid', 'Error', true, 'Tax', NULL, NULL, NULL, NULL, 70, 'en'),
    ('VAL_IBAN_FMT',      'PartnerBanks',   'iban',         'IBAN',   NULL, NULL,
     'IBAN is invalid', 'Error', true, 'Banking', NULL, NULL, NULL, NULL, 80, 'en'),
    ('VAL_BANK_COUNTRY',  'PartnerBanks',   'accountNumber', 'Custom', NULL, 'validateBankAccountCountry',
     'Bank account number format does not match country requirements', 'Warning', false, 'Banking', NULL, NULL, NULL, NULL, 90, 'en'),
    ('VAL_IBAN_SWIFT',    'PartnerBanks',   'iban',         'Custom', NULL, 'validateIbanSwiftConsistency',
     'Bank accounts with IBAN must also have SWIFT/BIC code (and vice versa)', 'Warning', false, 'Banking', NULL, NULL, NULL, NULL, 100, 'en'),
    ('VAL_SUPPLIER_BANK', 'BusinessPartnerRequests', 'entityType', 'Custom', NULL, 'validateSupplierBankAccount',
     'Suppliers must have at least one bank account for payment processing', 'Error', true, 'Banking', NULL, NULL, 'Supplier', NULL, 110, 'en'),
    ('VAL_STREET_FMT',    'PartnerAddresses', 'street',     'Custom', NULL, 'validateStreetFormat',
     'Street address must contain street name, not just house number', 'Error', true, 'Address', NULL, NULL, NULL, NULL, 120, 'en'),
    ('VAL_ADDR_PRIMARY',  'PartnerAddresses', 'isPrimary',  'Custom', NULL, 'validatePrimaryAddress',
     'Exactly one address must be marked as primary', 'Error', true, 'Address', NULL, NULL, NULL, NULL, 130, 'en'),
    ('VAL_ADDR_VAT',      'PartnerAddresses', 'isEstablished', 'Custom', NULL, 'validateEstablishedVatConsistency',
     'Established addresses require a VAT ID for their country', 'Warning', false, 'Tax', NULL, NULL, NULL, NULL, 140, 'en'),
    ('VAL_ADDR_COMPLETE', 'PartnerAddresses', 'isPrimary',  'Custom', NULL, 'validateAddressCompleteness',
     'Primary address is incomplete', 'Info', false, 'Quality', NULL, NULL, NULL, NULL, 150, 'en'),
    ('VAL_POSTAL_DE',     'PartnerAddresses', 'postalCode', 'Regex', '^[0-9]{5}$', NULL,
     'German postal codes must be 5 digits', 'Error', true, 'Address', NULL, NULL, NULL, NULL, 160, 'en'),
    ('VAL_POSTAL_US',     'PartnerAddresses', 'postalCode', 'Regex', '^[0-9]{5}(-[0-9]{4})?$', NULL,
     'US postal codes must be 12345 or 12345-6789', 'Error', true, 'Address', NULL, NULL, NULL, NULL, 170, 'en'),
    ('VAL_NAME_REQ',      'BusinessPartnerRequests', 'partnerName', 'Required', NULL, NULL,
     'Partnername ist erforderlich', 'Error', true, 'General', NULL, NULL, NULL, NULL, 10, 'de'),
    ('VAL_NAME_MIN',      'BusinessPartnerRequests', 'partnerName', 'MinLength', '3', NULL,
     '{fieldLabel} muss mindestens {minLength} Zeichen lang sein (aktuell: {actualLength})', 'Error', true, 'General', NULL, NULL, NULL, NULL, 20, 'de');

INSERT INTO _section_rules
    (rule_code, section_name, section_label, minimum_count, maximum_count, filter_criteria,
     min_error_message, max_error_message, block_submission, status, source_system, entity_type, request_type, priority, locale)
VALUES
    ('SEC_ADDR_MIN', 'addresses', 'Addresses', 1, NULL, NULL,
     '{sectionLabel} requires at least {minimumCount} record(s), but has {actualCount}', NULL, true, NULL, NULL, NULL, NULL, 10, 'en'),
    ('SEC_ADDR_EST', 'addresses', 'Established Addresses', 1, NULL, '{"isEstablished": true}',
     '{sectionLabel} requires at least {minimumCount} established record(s), but has {actualCount} of {totalCount} total', NULL, false, 'Submitted', NULL, NULL, NULL, 20, 'en'),
    ('SEC_EMAIL_MIN', 'emails', 'Email Addresses', 1, NULL, NULL,
     '{sectionLabel} requires at least {minimumCount} record(s), but has {actualCount}', NULL, true, NULL, NULL, NULL, NULL, 30, 'en'),
    ('SEC_BANK_MAX', 'banks', 'Bank Accounts', 0, 10, NULL,
     NULL, '{sectionLabel} allows maximum {maximumCount} record(s), but has {actualCount}', false, NULL, NULL, NULL, NULL, 40, 'en');
`

func (s *Store) Bootstrap(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, systemTablesSQL); err != nil {
		return fmt.Errorf("bootstrap system tables: %w", err)
	}
	if err := s.seedAdminUser(ctx); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	if err := s.seedRules(ctx); err != nil {
		return fmt.Errorf("seed rules: %w", err)
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context) error {
	var count int
	err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM _users").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.Pool.Exec(ctx,
		`INSERT INTO _users (email, password_hash, roles) VALUES ($1, $2, $3)`,
		"admin@localhost", string(hashBytes), []string{"admin"},
	)
	if err != nil {
		return err
	}

	log.Println("WARNING: Default admin user created (admin@localhost / changeme) — change the password immediately.")
	return nil
}

func (s *Store) seedRules(ctx context.Context) error {
	var count int
	err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM _validation_rules").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := s.Pool.Exec(ctx, seedRulesSQL); err != nil {
		return err
	}
	log.Println("Seeded default validation rule set")
	return nil
}
