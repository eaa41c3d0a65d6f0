package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CALENDAR HIERARCHY
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create the institution-wide calendar hierarchy
-- Version: 001

CREATE TABLE IF NOT EXISTS academic_years (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    year INTEGER NOT NULL UNIQUE,
    start_date DATE NOT NULL,
    end_date DATE NOT NULL,

    CONSTRAINT academic_year_chronology CHECK (start_date <= end_date)
);

CREATE TABLE IF NOT EXISTS academic_calendars (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    academic_year_id UUID NOT NULL REFERENCES academic_years(id) ON DELETE CASCADE,
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    reference VARCHAR(50) NOT NULL,
    start_date DATE NOT NULL,
    end_date DATE NOT NULL,
    changed TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_reference CHECK (reference IN (
        'DELIBERATION',
        'SCORES_EXAM_SUBMISSION',
        'SCORES_EXAM_DIFFUSION',
        'COURSE_ENROLLMENT',
        'EXAM_ENROLLMENTS',
        'TEACHING_CHARGE_APPLICATION'
    )),
    CONSTRAINT academic_calendar_chronology CHECK (start_date <= end_date)
);

CREATE INDEX IF NOT EXISTS idx_academic_calendars_year ON academic_calendars(academic_year_id);
CREATE INDEX IF NOT EXISTS idx_academic_calendars_reference ON academic_calendars(reference);
CREATE INDEX IF NOT EXISTS idx_academic_calendars_dates ON academic_calendars(start_date, end_date);

-- One-to-one mapping of a calendar to an exam session number. A calendar
-- without a row here is session-less and never drives deadline computation.
CREATE TABLE IF NOT EXISTS session_exam_calendars (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    academic_calendar_id UUID NOT NULL UNIQUE REFERENCES academic_calendars(id) ON DELETE CASCADE,
    number_session SMALLINT NOT NULL,

    CONSTRAINT valid_number_session CHECK (number_session BETWEEN 1 AND 3)
);
`

const migration001Down = `
DROP TABLE IF EXISTS session_exam_calendars;
DROP TABLE IF EXISTS academic_calendars;
DROP TABLE IF EXISTS academic_years;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: OFFERS AND OFFER YEAR CALENDARS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create program instances and their calendar overrides
-- Version: 002

CREATE TABLE IF NOT EXISTS offer_years (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    academic_year_id UUID NOT NULL REFERENCES academic_years(id) ON DELETE CASCADE,
    acronym VARCHAR(40) NOT NULL,
    title VARCHAR(255) NOT NULL DEFAULT '',

    CONSTRAINT unique_offer_per_year UNIQUE (academic_year_id, acronym)
);

CREATE INDEX IF NOT EXISTS idx_offer_years_acronym ON offer_years(acronym);

-- Successor key for a program instance; legacy offer year calendars may
-- not reference one.
CREATE TABLE IF NOT EXISTS education_group_years (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    academic_year_id UUID NOT NULL REFERENCES academic_years(id) ON DELETE CASCADE,
    acronym VARCHAR(40) NOT NULL
);

CREATE TABLE IF NOT EXISTS offer_enrollments (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    offer_year_id UUID NOT NULL REFERENCES offer_years(id) ON DELETE CASCADE,
    student_id UUID NOT NULL,

    CONSTRAINT unique_enrollment UNIQUE (offer_year_id, student_id)
);

CREATE INDEX IF NOT EXISTS idx_offer_enrollments_offer ON offer_enrollments(offer_year_id);

CREATE TABLE IF NOT EXISTS offer_year_calendars (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    academic_calendar_id UUID NOT NULL REFERENCES academic_calendars(id) ON DELETE CASCADE,
    offer_year_id UUID NOT NULL REFERENCES offer_years(id) ON DELETE CASCADE,
    education_group_year_id UUID REFERENCES education_group_years(id) ON DELETE SET NULL,
    start_date DATE,
    end_date DATE,
    customized BOOLEAN NOT NULL DEFAULT FALSE,
    changed TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT unique_offer_calendar UNIQUE (academic_calendar_id, education_group_year_id)
);

CREATE INDEX IF NOT EXISTS idx_offer_year_calendars_calendar ON offer_year_calendars(academic_calendar_id);
CREATE INDEX IF NOT EXISTS idx_offer_year_calendars_offer ON offer_year_calendars(offer_year_id);
CREATE INDEX IF NOT EXISTS idx_offer_year_calendars_group ON offer_year_calendars(education_group_year_id);
`

const migration002Down = `
DROP TABLE IF EXISTS offer_year_calendars;
DROP TABLE IF EXISTS offer_enrollments;
DROP TABLE IF EXISTS education_group_years;
DROP TABLE IF EXISTS offer_years;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: SESSION EXAM DEADLINES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create the per-student session exam deadlines
-- Version: 003

CREATE TABLE IF NOT EXISTS session_exam_deadlines (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    offer_enrollment_id UUID NOT NULL REFERENCES offer_enrollments(id) ON DELETE CASCADE,
    offer_year_id UUID NOT NULL REFERENCES offer_years(id) ON DELETE CASCADE,
    number_session SMALLINT NOT NULL,
    deadline DATE NOT NULL,
    deadline_tutor INTEGER NOT NULL DEFAULT 0,
    deliberation_date DATE,
    changed TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_deadline_session CHECK (number_session BETWEEN 1 AND 3),
    CONSTRAINT non_negative_tutor_delta CHECK (deadline_tutor >= 0),
    CONSTRAINT unique_deadline_per_session UNIQUE (offer_enrollment_id, number_session)
);

-- The batched read of the computer: all rows of one offer at one session.
CREATE INDEX IF NOT EXISTS idx_session_exam_deadlines_offer_session
    ON session_exam_deadlines(offer_year_id, number_session);
CREATE INDEX IF NOT EXISTS idx_session_exam_deadlines_enrollment
    ON session_exam_deadlines(offer_enrollment_id);
`

const migration003Down = `
DROP TABLE IF EXISTS session_exam_deadlines;
`

// GetMigrations returns the embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_calendar_hierarchy",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_offers_and_calendars",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_session_exam_deadlines",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}
