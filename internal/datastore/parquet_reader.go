package datastore

import (
	"errors"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/aleister1102/mirrorinc/internal/common"
	"github.com/aleister1102/mirrorinc/internal/models"
)

// ReadManifest loads every row of an asset manifest.
func ReadManifest(filePath string) ([]models.ParquetAssetRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.WrapErrorf(common.ErrNotFound, "manifest %s", filePath)
		}
		return nil, common.NewFilesystemError("open", filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, common.NewFilesystemError("stat", filePath, err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, common.WrapError(err, "failed to open parquet file for reading")
	}

	reader := parquet.NewGenericReader[models.ParquetAssetRecord](pqFile)
	defer reader.Close()

	records := make([]models.ParquetAssetRecord, 0, pqFile.NumRows())
	buf := make([]models.ParquetAssetRecord, 64)
	for {
		n, err := reader.Read(buf)
		records = append(records, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, common.WrapError(err, "failed to read parquet record")
		}
		if n == 0 {
			break
		}
	}
	return records, nil
}
