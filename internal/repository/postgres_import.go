package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/importer"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

var (
	addressUpsertSQL = upsertSQL("addresses",
		[]string{"tenant_id", "label"},
		[]string{"tenant_id", "label"})
	coproAddressSQL = linkSQL("copro_addresses",
		[]string{"tenant_id", "copro_id", "address_id", "role"},
		[]string{"tenant_id", "copro_id", "address_id"})
	parcelUpsertSQL = upsertSQL("parcels",
		[]string{"tenant_id", "cadastral_ref"},
		[]string{"tenant_id", "cadastral_ref"})
	coproParcelSQL = linkSQL("copro_parcels",
		[]string{"tenant_id", "copro_id", "parcel_id"},
		[]string{"tenant_id", "copro_id", "parcel_id"})

	lotUpsertSQL = upsertSQL("lots", []string{
		"tenant_id", "copro_id", "lot_number", "floor_label", "lot_type_label", "lot_family",
		"surface_m2", "exteriors",
		"tantiemes_general_num", "tantiemes_general_den",
		"tantiemes_asc_num", "tantiemes_asc_den",
		"tantiemes_stairs_num", "tantiemes_stairs_den",
		"tantiemes_heat_num", "tantiemes_heat_den",
		"observations", "acquired_at", "building", "staircase", "nb_rooms", "door_number", "annex_lot",
		"works_fund_amount", "source_job_id",
	}, []string{"tenant_id", "copro_id", "lot_number"})

	contactUpsertSQL = upsertSQL("contacts", []string{
		"tenant_id", "external_ref", "civility_raw", "contact_category", "legal_form", "group_type",
		"first_name", "last_name_or_name", "display_name",
		"address_line1", "address_line2", "postcode", "city", "country",
		"email", "phone1", "phone2",
	}, []string{"tenant_id", "external_ref"})

	unitUpsertSQL = upsertSQL("units", []string{
		"tenant_id", "copro_id", "unit_type", "status", "main_lot_number", "source_owner_external_ref", "source_job_id",
	}, []string{"tenant_id", "copro_id", "source_owner_external_ref", "main_lot_number"})

	unitLotSQL = linkSQL("unit_lots",
		[]string{"tenant_id", "unit_id", "lot_id", "role"},
		[]string{"unit_id", "lot_id"})
	unitOwnerSQL = linkSQL("unit_owners",
		[]string{"tenant_id", "unit_id", "contact_id"},
		[]string{"unit_id", "contact_id"})
	unitAddressSQL = linkSQL("unit_addresses",
		[]string{"tenant_id", "unit_id", "address_id", "role"},
		[]string{"unit_id", "address_id"})
	unitParcelSQL = linkSQL("unit_parcels",
		[]string{"tenant_id", "unit_id", "parcel_id"},
		[]string{"unit_id", "parcel_id"})
)

const reviewInsertSQL = `
	INSERT INTO unit_build_reviews (
		tenant_id, copro_id, job_id, position, owner_ref, status, reason,
		display_name, contact_category, legal_form, group_type, lots_in_scope, proposals
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING id::text
`

const reviewListSQL = `
	SELECT id::text, owner_ref, status, reason, display_name, contact_category,
	       legal_form, group_type, lots_in_scope, proposals
	FROM unit_build_reviews
	WHERE tenant_id = $1 AND job_id = $2
	ORDER BY position
`

var issueColumns = []string{
	"job_id", "tenant_id", "severity", "code", "entity_type", "entity_key", "message", "payload",
}

type PostgresImportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresImportRepository(db *sql.DB, logger *zap.Logger) *PostgresImportRepository {
	return &PostgresImportRepository{db: db, logger: logger}
}

// Persist writes the whole result in one transaction.
func (r *PostgresImportRepository) Persist(ctx context.Context, jobID string, res *importer.Result) (*PersistOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	w := &pgWriter{
		tx:         tx,
		tenantID:   res.TenantID,
		coproID:    res.CoproID,
		jobID:      jobID,
		addressIDs: map[string]string{},
		parcelIDs:  map[string]string{},
		lotIDs:     map[string]string{},
		contactIDs: map[string]string{},
		out:        &PersistOutcome{ReviewIDs: []string{}},
	}

	steps := []func(ctx context.Context, res *importer.Result) error{
		w.addresses,
		w.parcels,
		w.lots,
		w.contacts,
		w.units,
		w.reviews,
	}
	for _, step := range steps {
		if err := step(ctx, res); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("import result persisted",
		zap.String("job_id", jobID),
		zap.Int("lots_upserted", w.out.LotsUpserted),
		zap.Int("contacts_upserted", w.out.ContactsUpserted),
		zap.Int("units_upserted", w.out.UnitsUpserted),
		zap.Int("rows_created", w.out.RowsCreated),
	)
	return w.out, nil
}

// pgWriter carries the ids resolved so far within one Persist call.
type pgWriter struct {
	tx       *sql.Tx
	tenantID string
	coproID  string
	jobID    string

	addressIDs map[string]string // label -> id
	parcelIDs  map[string]string // cadastral ref -> id
	lotIDs     map[string]string // lot number -> id
	contactIDs map[string]string // external ref -> id

	out *PersistOutcome
}

func (w *pgWriter) addresses(ctx context.Context, res *importer.Result) error {
	for _, a := range res.Addresses {
		id, _, err := upsert(ctx, w.tx, addressUpsertSQL, w.tenantID, a.Label)
		if err != nil {
			return wrapPQ(fmt.Sprintf("failed to upsert address %q", a.Label), err)
		}
		w.addressIDs[a.Label] = id
		if _, err := link(ctx, w.tx, coproAddressSQL, w.tenantID, w.coproID, id, string(a.Role)); err != nil {
			return wrapPQ("failed to link address", err)
		}
	}
	return nil
}

func (w *pgWriter) parcels(ctx context.Context, res *importer.Result) error {
	for _, ref := range res.CadastralRefs {
		id, _, err := upsert(ctx, w.tx, parcelUpsertSQL, w.tenantID, ref)
		if err != nil {
			return wrapPQ(fmt.Sprintf("failed to upsert parcel %q", ref), err)
		}
		w.parcelIDs[ref] = id
		if _, err := link(ctx, w.tx, coproParcelSQL, w.tenantID, w.coproID, id); err != nil {
			return wrapPQ("failed to link parcel", err)
		}
	}
	return nil
}

func (w *pgWriter) lots(ctx context.Context, res *importer.Result) error {
	for _, l := range res.Lots {
		exteriors, err := jsonArg(l.Exteriors)
		if err != nil {
			return fmt.Errorf("failed to encode exteriors of lot %q: %w", l.LotNumber, err)
		}
		id, created, err := upsert(ctx, w.tx, lotUpsertSQL,
			w.tenantID, w.coproID, l.LotNumber, l.FloorLabel, l.LotTypeLabel, string(l.LotFamily),
			l.SurfaceM2, exteriors,
			l.TantiemesGeneral.Num, l.TantiemesGeneral.Den,
			l.TantiemesElevator.Num, l.TantiemesElevator.Den,
			l.TantiemesStairs.Num, l.TantiemesStairs.Den,
			l.TantiemesHeating.Num, l.TantiemesHeating.Den,
			l.Observations, dateArg(l.AcquiredAt), l.Building, l.Staircase, l.Rooms, l.DoorNumber, l.AnnexLot,
			l.WorksFundAmount, w.jobID,
		)
		if err != nil {
			return wrapPQ(fmt.Sprintf("failed to upsert lot %q", l.LotNumber), err)
		}
		w.lotIDs[l.LotNumber] = id
		w.out.LotsUpserted++
		w.created(created)
	}
	return nil
}

func (w *pgWriter) contacts(ctx context.Context, res *importer.Result) error {
	for _, c := range res.Contacts {
		id, created, err := upsert(ctx, w.tx, contactUpsertSQL,
			w.tenantID, c.ExternalRef, c.CivilityRaw, string(c.Category), enumArg(c.LegalForm), enumArg(c.GroupType),
			c.FirstName, c.LastNameOrName, c.DisplayName,
			c.AddressLine1, c.AddressLine2, c.Postcode, c.City, c.Country,
			c.Email, c.Phone1, c.Phone2,
		)
		if err != nil {
			return wrapPQ(fmt.Sprintf("failed to upsert contact %q", c.ExternalRef), err)
		}
		w.contactIDs[c.ExternalRef] = id
		w.out.ContactsUpserted++
		w.created(created)
	}
	return nil
}

func (w *pgWriter) units(ctx context.Context, res *importer.Result) error {
	for _, u := range res.Units {
		unitID, created, err := upsert(ctx, w.tx, unitUpsertSQL,
			w.tenantID, w.coproID, string(u.Type), "active", u.MainLotNumber, u.OwnerRef, w.jobID,
		)
		if err != nil {
			return wrapPQ(fmt.Sprintf("failed to upsert unit %s/%s", u.OwnerRef, u.MainLotNumber), err)
		}
		w.out.UnitsUpserted++
		w.created(created)

		for _, m := range u.Lots {
			lotID, ok := w.lotIDs[m.LotNumber]
			if !ok {
				return fmt.Errorf("unit %s/%s references unknown lot %q", u.OwnerRef, u.MainLotNumber, m.LotNumber)
			}
			if err := w.linkMember(ctx, unitLotSQL, w.tenantID, unitID, lotID, string(m.Role)); err != nil {
				return wrapPQ("failed to link unit lot", err)
			}
		}
		if u.OwnerContactRef != nil {
			if contactID, ok := w.contactIDs[*u.OwnerContactRef]; ok {
				if err := w.linkMember(ctx, unitOwnerSQL, w.tenantID, unitID, contactID); err != nil {
					return wrapPQ("failed to link unit owner", err)
				}
			}
		}
		if u.Address != nil {
			if addressID, ok := w.addressIDs[u.Address.Label]; ok {
				if err := w.linkMember(ctx, unitAddressSQL, w.tenantID, unitID, addressID, string(domain.AddressMain)); err != nil {
					return wrapPQ("failed to link unit address", err)
				}
			}
		}
		for _, ref := range u.Parcels {
			if parcelID, ok := w.parcelIDs[ref]; ok {
				if err := w.linkMember(ctx, unitParcelSQL, w.tenantID, unitID, parcelID); err != nil {
					return wrapPQ("failed to link unit parcel", err)
				}
			}
		}
	}
	return nil
}

func (w *pgWriter) linkMember(ctx context.Context, query string, args ...any) error {
	inserted, err := link(ctx, w.tx, query, args...)
	if err != nil {
		return err
	}
	w.created(inserted)
	return nil
}

func (w *pgWriter) reviews(ctx context.Context, res *importer.Result) error {
	for i, rc := range res.Reviews {
		lots, err := json.Marshal(rc.LotsInScope)
		if err != nil {
			return fmt.Errorf("failed to encode lots in scope: %w", err)
		}
		proposals, err := json.Marshal(rc.Proposals)
		if err != nil {
			return fmt.Errorf("failed to encode proposals: %w", err)
		}

		var id string
		err = w.tx.QueryRowContext(ctx, reviewInsertSQL,
			w.tenantID, w.coproID, w.jobID, i, rc.OwnerRef, rc.Status, string(rc.Reason),
			rc.DisplayName, string(rc.ContactCategory), enumArg(rc.LegalForm), enumArg(rc.GroupType),
			string(lots), string(proposals),
		).Scan(&id)
		if err != nil {
			return wrapPQ(fmt.Sprintf("failed to insert review for owner %q", rc.OwnerRef), err)
		}
		w.out.ReviewIDs = append(w.out.ReviewIDs, id)
	}
	return nil
}

func (w *pgWriter) created(ok bool) {
	if ok {
		w.out.RowsCreated++
	}
}

// InsertIssues bulk-loads data issues with COPY.
func (r *PostgresImportRepository) InsertIssues(ctx context.Context, jobID, tenantID string, issues []domain.DataIssue) error {
	if len(issues) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("data_issues", issueColumns...))
	if err != nil {
		return wrapPQ("failed to prepare issue copy", err)
	}

	for _, is := range issues {
		payload, err := jsonArg(is.Payload)
		if err != nil {
			stmt.Close()
			return fmt.Errorf("failed to encode issue payload: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			jobID, tenantID, string(is.Severity), is.Code, is.EntityType, is.EntityKey, is.Message, payload,
		); err != nil {
			stmt.Close()
			return wrapPQ("failed to copy issue", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return wrapPQ("failed to flush issue copy", err)
	}
	if err := stmt.Close(); err != nil {
		return wrapPQ("failed to close issue copy", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresImportRepository) ListReviews(ctx context.Context, tenantID, jobID string) ([]domain.ReviewCase, error) {
	rows, err := r.db.QueryContext(ctx, reviewListSQL, tenantID, jobID)
	if err != nil {
		return nil, wrapPQ("failed to list reviews", err)
	}
	defer rows.Close()

	out := []domain.ReviewCase{}
	for rows.Next() {
		var rc domain.ReviewCase
		var reason, category string
		var legalForm, groupType sql.NullString
		var lots, proposals []byte
		if err := rows.Scan(&rc.ID, &rc.OwnerRef, &rc.Status, &reason, &rc.DisplayName, &category,
			&legalForm, &groupType, &lots, &proposals); err != nil {
			return nil, err
		}
		rc.Reason = domain.ReviewReason(reason)
		rc.ContactCategory = domain.ContactCategory(category)
		if legalForm.Valid {
			lf := domain.LegalForm(legalForm.String)
			rc.LegalForm = &lf
		}
		if groupType.Valid {
			gt := domain.GroupType(groupType.String)
			rc.GroupType = &gt
		}
		if err := json.Unmarshal(lots, &rc.LotsInScope); err != nil {
			return nil, fmt.Errorf("failed to decode lots_in_scope of review %s: %w", rc.ID, err)
		}
		if err := json.Unmarshal(proposals, &rc.Proposals); err != nil {
			return nil, fmt.Errorf("failed to decode proposals of review %s: %w", rc.ID, err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
