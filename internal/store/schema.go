/**
 * @description
 * Idempotent DDL for the donation service. Applied at startup with
 * CREATE TABLE IF NOT EXISTS so a fresh database comes up without a separate
 * migration step.
 */

package store

// Schema is executed once at boot. Reserved columns for recurring donations
// exist in the donations table but carry no behavior yet.
const Schema = `
CREATE TABLE IF NOT EXISTS campaigns (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    goal_amount_cents BIGINT NOT NULL CHECK (goal_amount_cents > 0),
    current_amount_cents BIGINT NOT NULL DEFAULT 0 CHECK (current_amount_cents >= 0),
    is_active BOOLEAN NOT NULL DEFAULT false,
    start_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    end_date TIMESTAMPTZ,
    featured_image TEXT NOT NULL DEFAULT '',
    featured_video_url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS campaign_updates (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    campaign_id UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    video_url TEXT NOT NULL DEFAULT '',
    video_embed_code TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email TEXT NOT NULL UNIQUE,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    password_hash TEXT,
    auth_provider TEXT NOT NULL DEFAULT 'password',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS donations (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    campaign_id UUID NOT NULL REFERENCES campaigns(id),
    amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
    ticket_quantity INTEGER NOT NULL DEFAULT 0 CHECK (ticket_quantity >= 0),
    donor_name TEXT NOT NULL DEFAULT '',
    donor_email TEXT NOT NULL DEFAULT '',
    user_id UUID REFERENCES users(id),
    is_anonymous BOOLEAN NOT NULL DEFAULT false,
    message TEXT NOT NULL DEFAULT '',
    stripe_session_id TEXT NOT NULL DEFAULT '',
    stripe_payment_intent_id TEXT NOT NULL DEFAULT '',
    checkout_url TEXT NOT NULL DEFAULT '',
    payment_status TEXT NOT NULL DEFAULT 'pending',
    receipt_sent BOOLEAN NOT NULL DEFAULT false,
    receipt_sent_at TIMESTAMPTZ,
    is_recurring BOOLEAN NOT NULL DEFAULT false,
    recurring_interval TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_donations_campaign_status ON donations (campaign_id, payment_status);
CREATE INDEX IF NOT EXISTS idx_donations_session ON donations (stripe_session_id);
CREATE INDEX IF NOT EXISTS idx_donations_pending_age ON donations (created_at) WHERE payment_status = 'pending';

CREATE TABLE IF NOT EXISTS usage_records (
    client_key TEXT PRIMARY KEY,
    matches_used INTEGER NOT NULL DEFAULT 0,
    randomizes_used INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
