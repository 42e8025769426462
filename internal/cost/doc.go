// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cost computes dollar cost estimates from token counts.
//
// Pricing is fixed at the published per-million-token rates for prompt
// and completion tokens. All functions are pure: totals are derived
// from the turn log on demand and never cached.
package cost
