// Package mocks holds gomock doubles for the core ports.
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_repository_mock.go github.com/target/mmk-interviews/internal/core SessionRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=transcriber_mock.go github.com/target/mmk-interviews/internal/core Transcriber
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=scorer_mock.go github.com/target/mmk-interviews/internal/core Scorer
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=report_sender_mock.go github.com/target/mmk-interviews/internal/core ReportSender
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=invite_sender_mock.go github.com/target/mmk-interviews/internal/core InviteSender
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=audio_stager_mock.go github.com/target/mmk-interviews/internal/core AudioStager
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=speech_synthesizer_mock.go github.com/target/mmk-interviews/internal/core SpeechSynthesizer
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cache_repository_mock.go github.com/target/mmk-interviews/internal/core CacheRepository
