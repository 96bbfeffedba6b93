package database

import (
	"database/sql"
	"fmt"
	"time"

	"base0-backend/internal/models"
)

// UpsertPrompt inserts a prompt or replaces an existing row with the same
// id, matching the save-or-update behavior of the history store.
func (c *Client) UpsertPrompt(p *models.UserPrompt) error {
	query := `
		INSERT INTO prompts (id, user_id, prompt, enhanced_prompt, base_image_url, timestamp, cid, filecoin_url, width, height, version, preference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			prompt = excluded.prompt,
			enhanced_prompt = excluded.enhanced_prompt,
			base_image_url = excluded.base_image_url,
			timestamp = excluded.timestamp,
			cid = excluded.cid,
			filecoin_url = excluded.filecoin_url,
			width = excluded.width,
			height = excluded.height,
			version = excluded.version,
			preference = excluded.preference
	`
	_, err := c.db.Exec(query,
		p.ID, p.UserID, p.Prompt, p.EnhancedPrompt, p.BaseImageURL, p.Timestamp,
		p.CID, p.FilecoinURL,
		p.Metadata.Width, p.Metadata.Height, p.Metadata.Version, p.Metadata.Preference)
	if err != nil {
		return fmt.Errorf("failed to upsert prompt: %w", err)
	}
	return nil
}

// GetUserPrompts returns all prompts recorded for a wallet, newest first.
func (c *Client) GetUserPrompts(address string) ([]models.UserPrompt, error) {
	query := `
		SELECT id, user_id, prompt, enhanced_prompt, base_image_url, timestamp, cid, filecoin_url, width, height, version, preference
		FROM prompts WHERE user_id = ? ORDER BY timestamp DESC
	`
	rows, err := c.db.Query(query, address)
	if err != nil {
		return nil, fmt.Errorf("failed to select prompts: %w", err)
	}
	defer rows.Close()

	result := []models.UserPrompt{}
	for rows.Next() {
		var p models.UserPrompt
		if err := rows.Scan(&p.ID, &p.UserID, &p.Prompt, &p.EnhancedPrompt, &p.BaseImageURL,
			&p.Timestamp, &p.CID, &p.FilecoinURL,
			&p.Metadata.Width, &p.Metadata.Height, &p.Metadata.Version, &p.Metadata.Preference); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPrompt returns a single prompt by id, or sql.ErrNoRows.
func (c *Client) GetPrompt(id string) (*models.UserPrompt, error) {
	query := `
		SELECT id, user_id, prompt, enhanced_prompt, base_image_url, timestamp, cid, filecoin_url, width, height, version, preference
		FROM prompts WHERE id = ?
	`
	var p models.UserPrompt
	err := c.db.QueryRow(query, id).Scan(&p.ID, &p.UserID, &p.Prompt, &p.EnhancedPrompt, &p.BaseImageURL,
		&p.Timestamp, &p.CID, &p.FilecoinURL,
		&p.Metadata.Width, &p.Metadata.Height, &p.Metadata.Version, &p.Metadata.Preference)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpsertImage(img *models.GeneratedImage) error {
	query := `
		INSERT INTO images (id, user_id, prompt_id, image_url, share_url, deepai_id, timestamp, width, height, version, preference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			image_url = excluded.image_url,
			share_url = excluded.share_url,
			deepai_id = excluded.deepai_id,
			timestamp = excluded.timestamp
	`
	_, err := c.db.Exec(query,
		img.ID, img.UserID, img.PromptID, img.ImageURL, img.ShareURL, img.DeepAIID, img.Timestamp,
		img.Metadata.Width, img.Metadata.Height, img.Metadata.Version, img.Metadata.Preference)
	if err != nil {
		return fmt.Errorf("failed to upsert image: %w", err)
	}
	return nil
}

func (c *Client) GetUserImages(address string) ([]models.GeneratedImage, error) {
	query := `
		SELECT id, user_id, prompt_id, image_url, share_url, deepai_id, timestamp, width, height, version, preference
		FROM images WHERE user_id = ? ORDER BY timestamp DESC
	`
	rows, err := c.db.Query(query, address)
	if err != nil {
		return nil, fmt.Errorf("failed to select images: %w", err)
	}
	defer rows.Close()

	result := []models.GeneratedImage{}
	for rows.Next() {
		var img models.GeneratedImage
		if err := rows.Scan(&img.ID, &img.UserID, &img.PromptID, &img.ImageURL, &img.ShareURL,
			&img.DeepAIID, &img.Timestamp,
			&img.Metadata.Width, &img.Metadata.Height, &img.Metadata.Version, &img.Metadata.Preference); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// AppendWalletCID adds a piece CID to the wallet's index. The index is
// append-only; insertion order is preserved by the seq column.
func (c *Client) AppendWalletCID(address, cid string) error {
	_, err := c.db.Exec(`INSERT INTO wallet_cids (user_id, cid, created_at) VALUES (?, ?, ?)`,
		address, cid, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to append wallet cid: %w", err)
	}
	return nil
}

func (c *Client) GetWalletCIDs(address string) ([]string, error) {
	rows, err := c.db.Query(`SELECT cid FROM wallet_cids WHERE user_id = ? ORDER BY seq`, address)
	if err != nil {
		return nil, fmt.Errorf("failed to select wallet cids: %w", err)
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, fmt.Errorf("failed to scan wallet cid: %w", err)
		}
		result = append(result, cid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveCanvas stores a wallet's canvas document as JSON.
func (c *Client) SaveCanvas(address string, document []byte) error {
	query := `
		INSERT INTO canvases (user_id, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`
	_, err := c.db.Exec(query, address, string(document), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save canvas: %w", err)
	}
	return nil
}

// GetCanvas returns the wallet's canvas document, or nil when none exists.
func (c *Client) GetCanvas(address string) ([]byte, error) {
	var document string
	err := c.db.QueryRow(`SELECT document FROM canvases WHERE user_id = ?`, address).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select canvas: %w", err)
	}
	return []byte(document), nil
}

// SaveNonce stores the login nonce issued for an address, replacing any
// previous one.
func (c *Client) SaveNonce(address, nonce string) error {
	query := `
		INSERT INTO auth_nonces (address, nonce, created_at) VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET nonce = excluded.nonce, created_at = excluded.created_at
	`
	_, err := c.db.Exec(query, address, nonce, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save nonce: %w", err)
	}
	return nil
}

// TakeNonce returns and deletes the nonce for an address. A nonce can only
// be used for one login attempt.
func (c *Client) TakeNonce(address string) (string, error) {
	var nonce string
	err := c.db.QueryRow(`SELECT nonce FROM auth_nonces WHERE address = ?`, address).Scan(&nonce)
	if err != nil {
		return "", err
	}
	if _, err := c.db.Exec(`DELETE FROM auth_nonces WHERE address = ?`, address); err != nil {
		return "", fmt.Errorf("failed to consume nonce: %w", err)
	}
	return nonce, nil
}
