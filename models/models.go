package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken from user.go
// - Role, Rubric, RubricItem from role.go
// - Candidate, OneTimeToken from candidate.go
// - Interview from interview.go
// - Report from report.go

// Database schema overview:
// 1. users - recruiter/admin accounts behind cookie-based authentication
// 2. roles - job openings with an interview rubric and a public submission token
// 3. candidates - one row per applicant, unique per (role_id, email)
// 4. one_time_tokens - short-lived 6-digit verification codes keyed by email
// 5. interviews - at most one video-interview session per (candidate_id, role_id)
// 6. reports - reconciled resume/interview score record plus the rendered PDF location
