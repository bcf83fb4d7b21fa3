// Package statlearn is a small statistics and machine-learning library
// built around the numeric cores of applied choice modeling and
// segmentation work: a conditional (multinomial) logit model with exact
// likelihood and gradient, maximum-likelihood fitting through gonum's
// optimizers, a random-walk Metropolis-Hastings sampler with chain
// summaries and convergence diagnostics, Poisson and negative-binomial
// count regression by IRLS, randomized-experiment effect estimation, and
// from-scratch K-Means and K-Nearest-Neighbors.
//
// Sub-packages follow an estimator convention: constructors take
// functional options, Fit validates and trains, and fitted accessors
// return NotFittedError before Fit succeeds.
package statlearn
