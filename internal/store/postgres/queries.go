package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/query"
)

// vendorColumns is the column list used for SELECT statements on the prestataires table.
const vendorColumns = `id, nom, description, ville, region, categorie,
	prix_a_partir_de, prix_par_personne, categorie_lieu, capacite, hebergement, couchages,
	visible, featured, partner, site_web, email, telephone, created_at, updated_at`

// photoColumns is the column list used for SELECT statements on prestataire_photos.
const photoColumns = `id, prestataire_id, url, ordre, principale, is_cover, created_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryListVendors(ctx context.Context, db executor, q *query.Query, limit, offset int) ([]*model.Vendor, error) {
	var argIdx int
	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	where, args := q.Where(nextArg)
	stmt := `SELECT ` + vendorColumns + ` FROM prestataires`
	if where != "" {
		stmt += ` WHERE ` + where
	}
	stmt += ` ORDER BY ` + q.OrderBy()

	if limit > 0 {
		stmt += ` LIMIT ` + nextArg()
		args = append(args, limit)
	}
	if offset > 0 {
		stmt += ` OFFSET ` + nextArg()
		args = append(args, offset)
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*model.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return vendors, nil
}

func queryGetVendor(ctx context.Context, db executor, id string) (*model.Vendor, error) {
	row := db.QueryRowContext(ctx, `SELECT `+vendorColumns+` FROM prestataires WHERE id = $1`, id)
	v, err := scanVendor(row)
	if err != nil {
		return nil, err
	}

	photos, err := queryListPhotos(ctx, db, id)
	if err != nil {
		return nil, err
	}
	v.Photos = photos
	return v, nil
}

func queryCreateVendor(ctx context.Context, db executor, v *model.Vendor) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO prestataires (
			id, nom, description, ville, region, categorie,
			prix_a_partir_de, prix_par_personne, categorie_lieu, capacite, hebergement, couchages,
			visible, featured, partner, site_web, email, telephone, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20
		)`,
		v.ID,
		v.Name,
		nullString(v.Description),
		nullString(v.City),
		nullString(string(v.Region)),
		string(v.Category),
		nullFloatPtr(v.StartingPrice),
		nullFloatPtr(v.PricePerGuest),
		nullString(v.VenueType),
		nullIntPtr(v.Capacity),
		nullBoolPtr(v.Lodging),
		nullIntPtr(v.Beds),
		v.Visible,
		v.Featured,
		v.Partner,
		nullString(v.Website),
		nullString(v.Email),
		nullString(v.Phone),
		v.CreatedAt,
		v.UpdatedAt,
	)
	return err
}

func queryUpdateVendor(ctx context.Context, db executor, v *model.Vendor) error {
	return db.QueryRowContext(ctx, `
		UPDATE prestataires SET
			nom = $2,
			description = $3,
			ville = $4,
			region = $5,
			categorie = $6,
			prix_a_partir_de = $7,
			prix_par_personne = $8,
			categorie_lieu = $9,
			capacite = $10,
			hebergement = $11,
			couchages = $12,
			visible = $13,
			featured = $14,
			partner = $15,
			site_web = $16,
			email = $17,
			telephone = $18,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		v.ID,
		v.Name,
		nullString(v.Description),
		nullString(v.City),
		nullString(string(v.Region)),
		string(v.Category),
		nullFloatPtr(v.StartingPrice),
		nullFloatPtr(v.PricePerGuest),
		nullString(v.VenueType),
		nullIntPtr(v.Capacity),
		nullBoolPtr(v.Lodging),
		nullIntPtr(v.Beds),
		v.Visible,
		v.Featured,
		v.Partner,
		nullString(v.Website),
		nullString(v.Email),
		nullString(v.Phone),
	).Scan(&v.UpdatedAt)
}

func queryDeleteVendor(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM prestataires WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryAddPhoto(ctx context.Context, db executor, p *model.Photo) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO prestataire_photos (id, prestataire_id, url, ordre, principale, is_cover, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.VendorID, p.URL, p.Order, p.Principale, p.IsCover, p.CreatedAt,
	)
	return err
}

func queryListPhotos(ctx context.Context, db executor, vendorID string) ([]*model.Photo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+photoColumns+` FROM prestataire_photos
		WHERE prestataire_id = $1
		ORDER BY principale DESC, ordre ASC, created_at ASC`, vendorID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()
	return scanPhotos(rows)
}

// queryPrimaryPhoto selects at most one photo: the principale one, else the
// lowest ordre.
func queryPrimaryPhoto(ctx context.Context, db executor, vendorID string) (*model.Photo, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+photoColumns+` FROM prestataire_photos
		WHERE prestataire_id = $1
		ORDER BY principale DESC, ordre ASC, created_at ASC
		LIMIT 1`, vendorID)
	p, err := scanPhoto(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("primary photo: %w", err)
	}
	return p, nil
}
