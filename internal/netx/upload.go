// Package netx contains small HTTP helpers shared by the CLI tooling.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
)

// UploadToPresignedURL PUTs data to a presigned object-storage URL.
// The signature covers the exact URL, so no extra auth headers are needed.
func UploadToPresignedURL(ctx context.Context, url string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload failed: %s", resp.Status)
	}
	return nil
}
