package initializers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"
)

type MinioConfig struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	Bucket           string
	UseSSL           bool
	MaxAvatarSize    int64
	AvatarTypes      []string
	Expiry           time.Duration
	ExternalEndpoint string
	ExternalUseSSL   bool
}

var MinioClient *minio.Client
var ExternalMinioClient *minio.Client
var Conf MinioConfig

// avatarConfigYAML overrides avatar upload limits when a config file is
// present; environment variables fill the gaps.
type avatarConfigYAML struct {
	MaxAvatarSize      int64    `yaml:"max_avatar_size"`
	AllowedAvatarTypes []string `yaml:"allowed_avatar_types"`
	PresignedURLExpiry int      `yaml:"presigned_url_expiry"` // seconds
}

func loadAvatarConfig() (*avatarConfigYAML, error) {
	path := os.Getenv("AVATARS_CONFIG_FILE")
	if strings.TrimSpace(path) == "" {
		path = "config/avatars.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Unknown keys are a config mistake, not an override that quietly
	// does nothing.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg avatarConfigYAML
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func InitMinio() error {
	Conf = MinioConfig{
		Endpoint:         os.Getenv("MINIO_ENDPOINT"),
		AccessKey:        os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey:        os.Getenv("MINIO_SECRET_KEY"),
		Bucket:           os.Getenv("MINIO_BUCKET"),
		UseSSL:           parseBool(os.Getenv("MINIO_USE_SSL")),
		MaxAvatarSize:    parseInt64(os.Getenv("MAX_AVATAR_SIZE"), 2097152),
		AvatarTypes:      parseAvatarTypes(os.Getenv("ALLOWED_AVATAR_TYPES")),
		Expiry:           parseExpiry(os.Getenv("PRESIGNED_URL_EXPIRY")),
		ExternalEndpoint: os.Getenv("MINIO_EXTERNAL_ENDPOINT"),
		// Presigned URLs handed to browsers may need a different scheme than
		// the in-cluster endpoint. Infer from the external endpoint when the
		// explicit flag is unset.
		ExternalUseSSL: func() bool {
			raw := strings.TrimSpace(os.Getenv("MINIO_EXTERNAL_ENDPOINT"))
			if v := strings.TrimSpace(os.Getenv("MINIO_EXTERNAL_USE_SSL")); v != "" {
				return parseBool(v)
			}
			if strings.HasPrefix(raw, "https://") {
				return true
			}
			if strings.HasPrefix(raw, "http://") {
				return false
			}
			return parseBool(os.Getenv("MINIO_USE_SSL"))
		}(),
	}

	yamlCfg, err := loadAvatarConfig()
	if err != nil {
		// The file is optional; a present-but-broken one is not.
		if !os.IsNotExist(err) {
			return err
		}
	} else if yamlCfg != nil {
		if yamlCfg.MaxAvatarSize > 0 {
			Conf.MaxAvatarSize = yamlCfg.MaxAvatarSize
		}
		if len(yamlCfg.AllowedAvatarTypes) > 0 {
			Conf.AvatarTypes = yamlCfg.AllowedAvatarTypes
		}
		if yamlCfg.PresignedURLExpiry > 0 {
			Conf.Expiry = time.Duration(yamlCfg.PresignedURLExpiry) * time.Second
		}
	}

	client, err := minio.New(Conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(Conf.AccessKey, Conf.SecretKey, ""),
		Secure: Conf.UseSSL,
	})
	if err != nil {
		return err
	}
	MinioClient = client
	exists, errBucket := client.BucketExists(context.Background(), Conf.Bucket)
	if errBucket != nil {
		return errBucket
	}
	if !exists {
		errCreate := client.MakeBucket(context.Background(), Conf.Bucket, minio.MakeBucketOptions{})
		if errCreate != nil {
			return errCreate
		}
	}

	extEndpoint := strings.TrimPrefix(strings.TrimPrefix(Conf.ExternalEndpoint, "https://"), "http://")
	if extEndpoint == "" || extEndpoint == Conf.Endpoint {
		ExternalMinioClient = MinioClient
	} else {
		external, err := minio.New(extEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(Conf.AccessKey, Conf.SecretKey, ""),
			Secure: Conf.ExternalUseSSL,
			Region: "us-east-1",
		})
		if err != nil {
			return err
		}
		ExternalMinioClient = external
	}

	log.Println("Minio bucket ready:", Conf.Bucket)
	return nil
}

func parseBool(val string) bool {
	return strings.ToLower(val) == "true"
}

func parseInt64(val string, def int64) int64 {
	if val == "" {
		return def
	}
	v, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return def
	}
	return v
}

func parseAvatarTypes(val string) []string {
	if val == "" {
		return []string{"image/jpeg", "image/png", "image/webp"}
	}
	return strings.Split(val, ",")
}

func parseExpiry(val string) time.Duration {
	if val == "" {
		return time.Hour
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return time.Hour
	}
	return time.Duration(v) * time.Second
}

func baseMIME(mime string) string {
	if mime == "" {
		return ""
	}
	parts := strings.Split(mime, ";")
	return strings.TrimSpace(parts[0])
}

// CheckAvatarAllowed rejects files over the size cap or outside the
// allowed image types. The MIME type comes from content sniffing, not
// the client-supplied header.
func CheckAvatarAllowed(size int64, mime string) error {
	if size > Conf.MaxAvatarSize {
		return fmt.Errorf("avatar exceeds the size limit")
	}
	incoming := baseMIME(mime)
	for _, t := range Conf.AvatarTypes {
		if baseMIME(t) == incoming {
			return nil
		}
	}
	return fmt.Errorf("avatar file type is not allowed")
}

// AvatarURL returns a presigned, browser-reachable URL for a stored
// avatar object.
func AvatarURL(objectPath string) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", "inline")

	client := ExternalMinioClient
	if client == nil {
		client = MinioClient
	}
	presignedURL, err := client.PresignedGetObject(context.Background(), Conf.Bucket, objectPath, Conf.Expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("failed to create presigned url: %v", err)
	}
	return presignedURL.String(), nil
}
