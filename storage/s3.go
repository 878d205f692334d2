package storage

import (
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type S3Config struct {
	Bucket     string
	Region     string
	Endpoint   string // Custom endpoint, path-style addressing is used when set
	Key        string // Default AWS credential chain is used when empty
	Secret     string
	Prefix     string
	PresignFor time.Duration
}

type S3Storage struct {
	Config   S3Config
	s3Client *s3.S3
}

func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Key != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.Key, cfg.Secret, "")
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.PresignFor <= 0 {
		cfg.PresignFor = time.Hour
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, err
	}
	return &S3Storage{
		Config:   cfg,
		s3Client: s3.New(sess),
	}, nil
}

func (s *S3Storage) getRemotePath(name string) string {
	return strings.TrimPrefix(path.Join(s.Config.Prefix, path.Clean("/"+name)), "/")
}

func (s *S3Storage) Save(name, mimeType string, reader io.Reader) (int64, error) {
	body := &countingReader{Reader: reader}
	input := s3manager.UploadInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(s.getRemotePath(name)),
		Body:   body,
	}
	if mimeType != "" {
		input.ContentType = aws.String(mimeType)
	}
	uploader := s3manager.NewUploaderWithClient(s.s3Client)
	if _, err := uploader.Upload(&input); err != nil {
		return 0, err
	}
	return body.n, nil
}

// Serve redirects to a pre-signed download URL
func (s *S3Storage) Serve(name string, request *http.Request, writer http.ResponseWriter) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(s.getRemotePath(name)),
	})
	url, err := req.Presign(s.Config.PresignFor)
	if err != nil {
		http.Error(writer, "cannot sign URL", http.StatusInternalServerError)
		return
	}
	// Cached a bit less than the signature is valid for
	maxAge := int64((s.Config.PresignFor - time.Minute).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	writer.Header().Set("cache-control", "private, max-age="+strconv.FormatInt(maxAge, 10))
	http.Redirect(writer, request, url, http.StatusFound)
}

func (s *S3Storage) Delete(name string) error {
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(s.getRemotePath(name)),
	})
	return err
}

func (s *S3Storage) List(visit func(name string, modified time.Time) error) error {
	prefix := s.getRemotePath("")
	if prefix != "" {
		prefix += "/"
	}
	var visitErr error
	err := s.s3Client.ListObjectsV2Pages(&s3.ListObjectsV2Input{
		Bucket: aws.String(s.Config.Bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, object := range page.Contents {
			name := strings.TrimPrefix(aws.StringValue(object.Key), prefix)
			if name == "" {
				continue
			}
			if visitErr = visit(name, aws.TimeValue(object.LastModified)); visitErr != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	return visitErr
}

// GetFreeSpace is unknown for S3 buckets
func (s *S3Storage) GetFreeSpace() uint64 {
	return 0
}

func (s *S3Storage) Kind() string {
	return "s3"
}
